package monitor

// DefaultInfoFile is the CSV written by the collector and read by the analyzers.
const DefaultInfoFile = "monitor_info.csv"

// Banner is the first line of every info file. Readers skip it unread.
const Banner = "monitor_info time,usr_cpu,sys_cpu,idle_cpu,used_mem,free_mem,buff_mem,idps_cpu,idps_mem"

// Columns lists the positional fields of one row. The order is the file order.
var Columns = []string{
	"time", "usr_cpu", "sys_cpu", "idle_cpu", "used_mem", "free_mem",
	"buff_mem", "idps_cpu", "idps_mem",
}

// NumColumns is the fixed field count of a data row.
const NumColumns = 9

// Record is one data row. Numeric fields stay as the raw tokens read from the
// file; coercion happens in the analysis stage so malformed tokens can be
// dropped there instead of failing the load.
type Record struct {
	Time    string
	UsrCPU  string
	SysCPU  string
	IdleCPU string
	UsedMem string
	FreeMem string
	BuffMem string
	IDPSCPU string
	IDPSMem string
}

// RecordFromFields maps a positional row onto a Record. ok is false when the
// field count does not match the schema.
func RecordFromFields(fields []string) (Record, bool) {
	if len(fields) != NumColumns {
		return Record{}, false
	}
	return Record{
		Time:    fields[0],
		UsrCPU:  fields[1],
		SysCPU:  fields[2],
		IdleCPU: fields[3],
		UsedMem: fields[4],
		FreeMem: fields[5],
		BuffMem: fields[6],
		IDPSCPU: fields[7],
		IDPSMem: fields[8],
	}, true
}

// Fields returns the record in file order.
func (r Record) Fields() []string {
	return []string{r.Time, r.UsrCPU, r.SysCPU, r.IdleCPU, r.UsedMem, r.FreeMem, r.BuffMem, r.IDPSCPU, r.IDPSMem}
}

// Column returns the raw token for a column name, "" for unknown names.
func (r Record) Column(name string) string {
	switch name {
	case "time":
		return r.Time
	case "usr_cpu":
		return r.UsrCPU
	case "sys_cpu":
		return r.SysCPU
	case "idle_cpu":
		return r.IdleCPU
	case "used_mem":
		return r.UsedMem
	case "free_mem":
		return r.FreeMem
	case "buff_mem":
		return r.BuffMem
	case "idps_cpu":
		return r.IDPSCPU
	case "idps_mem":
		return r.IDPSMem
	}
	return ""
}
