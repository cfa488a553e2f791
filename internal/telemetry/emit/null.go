package emit

// Null discards every event. It is the default Emitter when the driver is
// used as a library without telemetry configured.
type Null struct{}

func (Null) Emit(Event) {}
