package bridge

// These errors are setup-time errors.  Once dispatch starts, nothing
// in this package fails loudly; see Report.

// DuplicateSubscription occurs when a (module, tag) pair is
// registered twice, which would make dispatch ambiguous.
type DuplicateSubscription struct {
	Module string
	Tag    string
}

func (e *DuplicateSubscription) Error() string {
	return `module "` + e.Module + `" already subscribed to tag "` + e.Tag + `"`
}

// BadSubscription occurs when a subscription is missing its module,
// tag, or decoder.
type BadSubscription struct {
	Sub *Subscription
}

func (e *BadSubscription) Error() string {
	switch {
	case e.Sub == nil:
		return "nil subscription"
	case e.Sub.Module == "":
		return `subscription for tag "` + e.Sub.Tag + `" has no module`
	case e.Sub.Tag == "":
		return `subscription for module "` + e.Sub.Module + `" has no tag`
	default:
		return `subscription "` + e.Sub.Module + `"/"` + e.Sub.Tag + `" has no decoder`
	}
}

// DuplicateCallback occurs when OnMessage is called twice for the
// same module.
type DuplicateCallback struct {
	Module string
}

func (e *DuplicateCallback) Error() string {
	return `module "` + e.Module + `" already has a message callback`
}
