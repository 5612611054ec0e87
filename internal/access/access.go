// Package access decides whether the invoking identity may view the
// requested usage. The evaluator is a pure function over a flat capability
// set; it performs no I/O and DENIED is an ordinary result, not an error.
package access

// Identity is the requesting user plus the capabilities resolved for this
// invocation.
type Identity struct {
	Username string

	// ViewAll is held by root and configured operators; it permits viewing
	// any user's or account's usage.
	ViewAll bool

	// CoordinatorOf lists accounts the user coordinates. A coordinator may
	// view the whole account, all members included.
	CoordinatorOf []string

	// MemberOf lists accounts the user has an association with. A plain
	// member may query the account, scoped to their own jobs.
	MemberOf []string
}

func (id Identity) coordinates(account string) bool {
	for _, a := range id.CoordinatorOf {
		if a == account {
			return true
		}
	}
	return false
}

func (id Identity) belongsTo(account string) bool {
	for _, a := range id.MemberOf {
		if a == account {
			return true
		}
	}
	return false
}

// Decision is the evaluator's typed result.
type Decision struct {
	Allowed bool
	Reason  string

	// AllUsers means the query may cover every user in the target account
	// rather than being restricted to the requester's own jobs.
	AllUsers bool
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Evaluate authorizes a usage query for targetUser and/or targetAccount,
// either of which may be empty. With no target at all the query is for the
// requester's own usage and is always authorized.
func Evaluate(id Identity, targetUser, targetAccount string) Decision {
	if targetUser != "" && targetUser != id.Username && !id.ViewAll {
		return deny("insufficient privilege to view another user's usage")
	}

	if targetAccount != "" {
		switch {
		case id.ViewAll:
			return Decision{Allowed: true, AllUsers: targetUser == ""}
		case id.coordinates(targetAccount):
			return Decision{Allowed: true, AllUsers: targetUser == ""}
		case id.belongsTo(targetAccount):
			// Members see their own share of the account only.
			return Decision{Allowed: true}
		default:
			return deny("not a member or coordinator of account " + targetAccount)
		}
	}

	return Decision{Allowed: true}
}
