package common

// Progress is a stage of the connection lifecycle reported by a transport.
// Stages are ordered; ProgressReady is the last one.
type Progress int

const (
	// ProgressConnecting is reported while the transport dials the server
	ProgressConnecting Progress = iota
	// ProgressConnected is reported once the session is established
	ProgressConnected
	// ProgressObjectsLoaded is reported once the initial object set arrived
	ProgressObjectsLoaded
	// ProgressReady is reported when the connection can serve requests
	ProgressReady
)

func (p Progress) String() string {
	switch p {
	case ProgressConnecting:
		return `connecting`
	case ProgressConnected:
		return `connected`
	case ProgressObjectsLoaded:
		return `objects loaded`
	case ProgressReady:
		return `ready`
	}
	return `unknown`
}
