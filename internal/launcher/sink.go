package launcher

// Sink adds dismissal to a Launcher so it satisfies selection.Actions.
type Sink struct {
	*Launcher
	OnDismiss func()
}

func (s Sink) Dismiss() {
	if s.OnDismiss != nil {
		s.OnDismiss()
	}
}
