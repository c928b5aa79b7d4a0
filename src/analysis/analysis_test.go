package analysis

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lv13614133158/df-code/src/monitor"
)

// writeInfoFile writes a banner line plus the given rows into a temp info file.
func writeInfoFile(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), monitor.DefaultInfoFile)
	content := monitor.Banner + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func row(ts string, usr, sys, idle, used, free, buff, icpu, imem interface{}) string {
	return fmt.Sprintf("%s,%v,%v,%v,%v,%v,%v,%v,%v", ts, usr, sys, idle, used, free, buff, icpu, imem)
}

func TestAnalyzeFile_ConstantColumns(t *testing.T) {
	var rows []string
	for i := 0; i < 10; i++ {
		rows = append(rows, row(fmt.Sprintf("10:00:%02d", i), 10, 5, 85, 4000, 2000, 500, 1.5, 300))
	}
	path := writeInfoFile(t, rows...)
	agg, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.AvgUsr != 10.0 || agg.AvgSys != 5.0 || agg.AvgIdle != 85.0 {
		t.Fatalf("cpu means got usr=%v sys=%v idle=%v want 10/5/85", agg.AvgUsr, agg.AvgSys, agg.AvgIdle)
	}
	if agg.TotalCPUUsage != 15.0 {
		t.Fatalf("total cpu got %v want 15", agg.TotalCPUUsage)
	}
	if agg.AvgIDPSCPU != 1.5 || agg.AvgIDPSMem != 300 {
		t.Fatalf("idps means got %v/%v want 1.5/300", agg.AvgIDPSCPU, agg.AvgIDPSMem)
	}
	if agg.LoadedRows != 10 || agg.CPURows != 10 || agg.ProcessRows != 10 {
		t.Fatalf("row accounting got %+v", agg)
	}
	if agg.FirstTime != "10:00:00" || agg.LastTime != "10:00:09" {
		t.Fatalf("time window got %q..%q", agg.FirstTime, agg.LastTime)
	}
	if agg.Lenient || agg.ProcessAbsent {
		t.Fatalf("unexpected flags lenient=%v absent=%v", agg.Lenient, agg.ProcessAbsent)
	}
}

func TestAnalyzeFile_MalformedRowFallsBackToLenient(t *testing.T) {
	rows := []string{
		row("t1", 10, 2, 88, 100, 900, 10, 1, 50),
		row("t2", 20, 4, 76, 200, 800, 20, 2, 60),
		"t3,1,2,3,4,5,6,7,8,9,10", // 11 fields
		row("t4", 30, 6, 64, 300, 700, 30, 3, 70),
		row("t5", 40, 8, 52, 400, 600, 40, 4, 80),
		row("t6", 50, 10, 40, 500, 500, 50, 5, 90),
	}
	path := writeInfoFile(t, rows...)

	lr, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !lr.Lenient || lr.Skipped != 1 || len(lr.Records) != 5 {
		t.Fatalf("expected lenient recovery of 5 rows skipping 1, got lenient=%v skipped=%d rows=%d", lr.Lenient, lr.Skipped, len(lr.Records))
	}

	agg, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.CPURows != 5 {
		t.Fatalf("expected means over 5 rows got %d", agg.CPURows)
	}
	if agg.AvgUsr != 30 || agg.AvgSys != 6 || agg.AvgIdle != 64 {
		t.Fatalf("means got usr=%v sys=%v idle=%v want 30/6/64", agg.AvgUsr, agg.AvgSys, agg.AvgIdle)
	}
	if agg.AvgIDPSCPU != 3 || agg.AvgIDPSMem != 70 || agg.AvgUsedMem != 300 {
		t.Fatalf("process/memory means got idps=%v/%v used=%v", agg.AvgIDPSCPU, agg.AvgIDPSMem, agg.AvgUsedMem)
	}
	if agg.SkippedLines != 1 || !agg.Lenient {
		t.Fatalf("expected skip accounting carried into aggregate: %+v", agg)
	}
}

func TestAnalyzeFile_ProcessColumnsNeverNumeric(t *testing.T) {
	path := writeInfoFile(t,
		row("t1", 10, 5, 85, 1000, 3000, 100, "n/a", "n/a"),
		row("t2", 12, 6, 82, 1200, 2800, 120, "", ""),
		row("t3", 14, 7, 79, 1400, 2600, 140, "idps", "mem"),
	)
	agg, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("absent process columns must not fail: %v", err)
	}
	if !agg.ProcessAbsent {
		t.Fatalf("expected ProcessAbsent")
	}
	if agg.AvgIDPSCPU != 0 || agg.AvgIDPSMem != 0 {
		t.Fatalf("idps means should default to 0 got %v/%v", agg.AvgIDPSCPU, agg.AvgIDPSMem)
	}
	if agg.AvgUsr != 12 || agg.AvgUsedMem != 1200 {
		t.Fatalf("cpu/memory means should come from stage 1 rows got usr=%v used=%v", agg.AvgUsr, agg.AvgUsedMem)
	}
	if agg.ProcessRows != 0 || agg.CPURows != 3 {
		t.Fatalf("row accounting got cpu=%d process=%d", agg.CPURows, agg.ProcessRows)
	}
}

func TestAnalyzeFile_StageOrder(t *testing.T) {
	// Row 2 has a bad idle_cpu: excluded from everything.
	// Row 3 has a bad idps_mem: counts for CPU means, not for memory/process means.
	path := writeInfoFile(t,
		row("t1", 10, 10, 80, 100, 900, 1, 2, 40),
		row("t2", 99, 99, "id", 999, 999, 9, 9, 99),
		row("t3", 30, 30, 40, 500, 500, 5, 4, "x"),
	)
	agg, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if agg.CPURows != 2 || agg.ProcessRows != 1 {
		t.Fatalf("stage sizes got cpu=%d process=%d want 2/1", agg.CPURows, agg.ProcessRows)
	}
	if agg.AvgUsr != 20 || agg.AvgIdle != 60 {
		t.Fatalf("cpu means got usr=%v idle=%v want 20/60", agg.AvgUsr, agg.AvgIdle)
	}
	if agg.AvgUsedMem != 100 || agg.AvgIDPSCPU != 2 || agg.AvgIDPSMem != 40 {
		t.Fatalf("stage 2 means got used=%v idps=%v/%v", agg.AvgUsedMem, agg.AvgIDPSCPU, agg.AvgIDPSMem)
	}
}

func TestAnalyzeFile_Idempotent(t *testing.T) {
	path := writeInfoFile(t,
		row("a", 1.25, 3.5, 95.25, 10, 20, 30, 0.1, 7),
		row("b", 2.75, 1.5, 95.75, 11, 21, 31, 0.3, 9),
		row("c", 0.33, 0.67, 99, 12, 22, 32, 0.2, 8),
	)
	first, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("analyze again: %v", err)
	}
	if first != second {
		t.Fatalf("aggregate changed between runs:\n%+v\n%+v", first, second)
	}
}

func TestComputeAggregate_MeansWithinRange(t *testing.T) {
	vals := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.7, 1e-9, 33.3333}
	var recs []monitor.Record
	for i, v := range vals {
		f := fmt.Sprint(v)
		recs = append(recs, monitor.Record{Time: fmt.Sprint(i), UsrCPU: f, SysCPU: f, IdleCPU: f, UsedMem: f, FreeMem: f, BuffMem: f, IDPSCPU: f, IDPSMem: f})
	}
	agg, err := ComputeAggregate(Clean(recs))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for name, m := range map[string]float64{
		"usr": agg.AvgUsr, "sys": agg.AvgSys, "idle": agg.AvgIdle,
		"used": agg.AvgUsedMem, "free": agg.AvgFreeMem, "buff": agg.AvgBuffMem,
		"idps_cpu": agg.AvgIDPSCPU, "idps_mem": agg.AvgIDPSMem,
	} {
		if m < lo || m > hi {
			t.Fatalf("%s mean %v outside [%v,%v]", name, m, lo, hi)
		}
	}
	if agg.TotalCPUUsage != agg.AvgUsr+agg.AvgSys {
		t.Fatalf("total %v != usr+sys %v", agg.TotalCPUUsage, agg.AvgUsr+agg.AvgSys)
	}

	// ten identical 0.1 values must average to exactly 0.1
	agg, _ = ComputeAggregate(Clean(recs[:10]))
	if agg.AvgUsr != 0.1 {
		t.Fatalf("mean of identical values drifted: %v", agg.AvgUsr)
	}
}

func TestComputeAggregate_SkipsBadTokensInUncleanedColumns(t *testing.T) {
	recs := []monitor.Record{
		{Time: "1", UsrCPU: "10", SysCPU: "us", IdleCPU: "80", UsedMem: "", FreeMem: "5", BuffMem: "1", IDPSCPU: "1", IDPSMem: "2"},
		{Time: "2", UsrCPU: "oops", SysCPU: "4", IdleCPU: "90", UsedMem: "300", FreeMem: "7", BuffMem: "3", IDPSCPU: "1", IDPSMem: "2"},
	}
	agg, err := ComputeAggregate(Clean(recs))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.AvgUsr != 10 || agg.AvgSys != 4 || agg.AvgUsedMem != 300 {
		t.Fatalf("bad tokens should be skipped, got usr=%v sys=%v used=%v", agg.AvgUsr, agg.AvgSys, agg.AvgUsedMem)
	}
}

func TestAnalyzeFile_NoValidRows(t *testing.T) {
	path := writeInfoFile(t,
		row("t1", 1, 1, "id", 1, 1, 1, 1, 1),
		row("t2", 1, 1, "", 1, 1, 1, 1, 1),
	)
	_, err := AnalyzeFile(path)
	if !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("expected ErrNoValidRows got %v", err)
	}
}

func TestAnalyzeFile_MissingFile(t *testing.T) {
	_, err := AnalyzeFile(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error got %v", err)
	}
}
