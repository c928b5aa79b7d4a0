package monitor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// TimeLayout is the time column format written by the collector.
const TimeLayout = "2006-01-02 15:04:05"

// Sample is one measurement of the system and the monitored process.
// Memory values are KB, CPU values percent.
type Sample struct {
	Time      time.Time
	UsrCPU    float64
	SysCPU    float64
	IdleCPU   float64
	UsedMemKB uint64
	FreeMemKB uint64
	BuffMemKB uint64
	// ProcFound is false when the monitored process was not running; its
	// columns are then written empty and the analyzer drops the row from
	// process statistics.
	ProcFound bool
	ProcCPU   float64
	ProcMemKB uint64
}

// Record formats the sample as an info file row.
func (s Sample) Record() Record {
	r := Record{
		Time:    s.Time.Format(TimeLayout),
		UsrCPU:  formatPct(s.UsrCPU),
		SysCPU:  formatPct(s.SysCPU),
		IdleCPU: formatPct(s.IdleCPU),
		UsedMem: strconv.FormatUint(s.UsedMemKB, 10),
		FreeMem: strconv.FormatUint(s.FreeMemKB, 10),
		BuffMem: strconv.FormatUint(s.BuffMemKB, 10),
	}
	if s.ProcFound {
		r.IDPSCPU = formatPct(s.ProcCPU)
		r.IDPSMem = strconv.FormatUint(s.ProcMemKB, 10)
	}
	return r
}

func formatPct(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

// SampleSource produces samples; SystemSource is the real one.
type SampleSource interface {
	Sample(ctx context.Context) (Sample, error)
}

// SystemSource samples host CPU/memory through gopsutil and tracks one
// process by name.
type SystemSource struct {
	ProcessName string

	prev cpu.TimesStat
	proc *process.Process
}

// NewSystemSource returns a source tracking the named process.
func NewSystemSource(processName string) *SystemSource {
	return &SystemSource{ProcessName: processName}
}

// Sample reads CPU times, virtual memory and the tracked process. CPU
// percentages are deltas since the previous call; the first call measures
// since boot.
func (s *SystemSource) Sample(ctx context.Context) (Sample, error) {
	out := Sample{Time: time.Now()}
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return out, fmt.Errorf("failed to get cpu times: %w", err)
	}
	if len(times) == 0 {
		return out, errors.New("no cpu times available")
	}
	out.UsrCPU, out.SysCPU, out.IdleCPU = CPUSplit(s.prev, times[0])
	s.prev = times[0]

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to get memory info: %w", err)
	}
	out.UsedMemKB = vm.Used / 1024
	out.FreeMemKB = vm.Free / 1024
	out.BuffMemKB = vm.Buffers / 1024

	s.sampleProcess(ctx, &out)
	return out, nil
}

// sampleProcess fills the process fields. Failures only mean "not found".
func (s *SystemSource) sampleProcess(ctx context.Context, out *Sample) {
	if s.ProcessName == "" {
		return
	}
	if s.proc != nil {
		if running, err := s.proc.IsRunningWithContext(ctx); err != nil || !running {
			Debugf("process %s (pid %d) gone", s.ProcessName, s.proc.Pid)
			s.proc = nil
		}
	}
	if s.proc == nil {
		s.proc = findProcess(ctx, s.ProcessName)
		if s.proc == nil {
			return
		}
		Infof("tracking process %s pid=%d", s.ProcessName, s.proc.Pid)
	}
	pct, err := s.proc.PercentWithContext(ctx, 0)
	if err != nil {
		Debugf("process %s cpu: %v", s.ProcessName, err)
		return
	}
	mi, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		Debugf("process %s memory: %v", s.ProcessName, err)
		return
	}
	out.ProcFound = true
	out.ProcCPU = pct
	out.ProcMemKB = mi.RSS / 1024
}

func findProcess(ctx context.Context, name string) *process.Process {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		Warnf("list processes: %v", err)
		return nil
	}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(n, name) {
			return p
		}
	}
	return nil
}

// CPUSplit converts two cumulative CPU time readings into user, system and
// idle percent of the elapsed CPU time. Nice counts as user, iowait as idle.
func CPUSplit(prev, cur cpu.TimesStat) (usr, sys, idle float64) {
	busyUser := (cur.User - prev.User) + (cur.Nice - prev.Nice)
	busySys := (cur.System - prev.System) + (cur.Irq - prev.Irq) + (cur.Softirq - prev.Softirq) + (cur.Steal - prev.Steal)
	idleT := (cur.Idle - prev.Idle) + (cur.Iowait - prev.Iowait)
	total := busyUser + busySys + idleT
	if total <= 0 {
		return 0, 0, 0
	}
	return busyUser / total * 100, busySys / total * 100, idleT / total * 100
}

// InfoWriter appends rows to an info file.
type InfoWriter struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// OpenInfoFile opens path for appending, writing the banner line if the file
// is new or empty.
func OpenInfoFile(path string) (*InfoWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() == 0 {
		if _, err := f.WriteString(Banner + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("write banner %s: %w", path, err)
		}
	}
	return &InfoWriter{f: f, w: csv.NewWriter(f)}, nil
}

// Write appends one row and flushes it.
func (iw *InfoWriter) Write(r Record) error {
	iw.mu.Lock()
	defer iw.mu.Unlock()
	if err := iw.w.Write(r.Fields()); err != nil {
		return err
	}
	iw.w.Flush()
	return iw.w.Error()
}

// Close flushes and closes the file.
func (iw *InfoWriter) Close() error {
	iw.mu.Lock()
	defer iw.mu.Unlock()
	iw.w.Flush()
	if err := iw.w.Error(); err != nil {
		iw.f.Close()
		return err
	}
	return iw.f.Close()
}

// Collector samples on a fixed interval and appends rows to an InfoWriter.
type Collector struct {
	Source   SampleSource
	Interval time.Duration
	// Samples stops the loop after this many rows; 0 runs until ctx is done.
	Samples int
}

// Run samples immediately and then every Interval until ctx is cancelled or
// Samples rows were written. It returns the number of rows written.
// Sampling errors are logged and skipped; write errors stop the loop.
func (c *Collector) Run(ctx context.Context, w *InfoWriter) (int, error) {
	if c.Interval <= 0 {
		return 0, fmt.Errorf("collector interval must be positive, got %s", c.Interval)
	}
	t := time.NewTicker(c.Interval)
	defer t.Stop()
	written := 0
	for {
		s, err := c.Source.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return written, nil
			}
			Warnf("sample: %v", err)
		} else {
			if err := w.Write(s.Record()); err != nil {
				return written, fmt.Errorf("write sample: %w", err)
			}
			written++
			Debugf("sample %d usr=%.1f sys=%.1f idle=%.1f used=%dKB proc=%v", written, s.UsrCPU, s.SysCPU, s.IdleCPU, s.UsedMemKB, s.ProcFound)
			if c.Samples > 0 && written >= c.Samples {
				return written, nil
			}
		}
		select {
		case <-ctx.Done():
			return written, nil
		case <-t.C:
		}
	}
}
