package domain

// PidStatus is the readable state of the streamer process on /healthz.
type PidStatus string

const (
	RUNNING PidStatus = "RUNNING"
	SLEEP   PidStatus = "SLEEP"
	STOP    PidStatus = "STOP"
	IDLE    PidStatus = "IDLE"
	ZOMBIE  PidStatus = "ZOMBIE"
	WAIT    PidStatus = "WAIT"
	LOCK    PidStatus = "LOCK"
	UNKNOWN PidStatus = "UNKNOWN"
)

var pidStatuses = map[string]PidStatus{
	"R": RUNNING,
	"S": SLEEP,
	"T": STOP,
	"I": IDLE,
	"Z": ZOMBIE,
	"W": WAIT,
	"L": LOCK,
}

// ToStatus maps the one letter state reported by gopsutil.
func ToStatus(status string) PidStatus {
	if s, ok := pidStatuses[status]; ok {
		return s
	}
	return UNKNOWN
}
