package movepick

import "fmt"

// Stage is where a Picker is in its pipeline. Each pipeline is a contiguous
// run of stages and a picker only ever moves forward through its own.
type Stage uint8

const (
	// main search
	MainTT Stage = iota
	CaptureInit
	GoodCapture
	Refutation
	QuietInit
	Quiet
	BadCapture

	// side to move in check
	EvasionTT
	EvasionInit
	Evasion

	// capture-only probing
	ProbeTT
	ProbeInit
	Probe

	// quiescence
	QSearchTT
	QCaptureInit
	QCapture
	QCheckInit
	QCheck
)

var stageNames = [...]string{
	MainTT:       "main-tt",
	CaptureInit:  "capture-init",
	GoodCapture:  "good-capture",
	Refutation:   "refutation",
	QuietInit:    "quiet-init",
	Quiet:        "quiet",
	BadCapture:   "bad-capture",
	EvasionTT:    "evasion-tt",
	EvasionInit:  "evasion-init",
	Evasion:      "evasion",
	ProbeTT:      "probe-tt",
	ProbeInit:    "probe-init",
	Probe:        "probe",
	QSearchTT:    "qsearch-tt",
	QCaptureInit: "qcapture-init",
	QCapture:     "qcapture",
	QCheckInit:   "qcheck-init",
	QCheck:       "qcheck",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}
