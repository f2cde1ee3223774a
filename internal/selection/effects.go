package selection

import "github.com/pders01/ytspot/internal/storage"

// Actions receives the side effects of confirming or cancelling. Calls are
// fire-and-forget: implementations report their own failures.
type Actions interface {
	CopyLink(t storage.Ticket)
	OpenURL(t storage.Ticket)
	Dismiss()
}

// Effects receives scroll notifications for the rendering layer. The two
// notifications are triggered independently.
type Effects interface {
	// ScrollIntoView asks for the row at index to be made visible.
	ScrollIntoView(index int)
	// ScrollToTop asks for the result container to scroll to its top.
	ScrollToTop()
}

// EffectFuncs adapts plain functions to Effects. Nil fields are ignored.
type EffectFuncs struct {
	OnScrollIntoView func(index int)
	OnScrollToTop    func()
}

func (f EffectFuncs) ScrollIntoView(index int) {
	if f.OnScrollIntoView != nil {
		f.OnScrollIntoView(index)
	}
}

func (f EffectFuncs) ScrollToTop() {
	if f.OnScrollToTop != nil {
		f.OnScrollToTop()
	}
}

type nopActions struct{}

func (nopActions) CopyLink(storage.Ticket) {}
func (nopActions) OpenURL(storage.Ticket)  {}
func (nopActions) Dismiss()                {}
