package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateSelfAlwaysAllowed(t *testing.T) {
	id := Identity{Username: "alice"}

	dec := Evaluate(id, "", "")
	assert.True(t, dec.Allowed)
	assert.False(t, dec.AllUsers)

	dec = Evaluate(id, "alice", "")
	assert.True(t, dec.Allowed)
}

func TestEvaluateOtherUserRequiresViewAll(t *testing.T) {
	dec := Evaluate(Identity{Username: "alice"}, "bob", "")
	assert.False(t, dec.Allowed)
	assert.Equal(t, "insufficient privilege to view another user's usage", dec.Reason)

	dec = Evaluate(Identity{Username: "root", ViewAll: true}, "bob", "")
	assert.True(t, dec.Allowed)
	assert.False(t, dec.AllUsers)
}

func TestEvaluateAccountQueries(t *testing.T) {
	t.Run("outsider denied", func(t *testing.T) {
		dec := Evaluate(Identity{Username: "alice"}, "", "msc01")
		assert.False(t, dec.Allowed)
		assert.Equal(t, "not a member or coordinator of account msc01", dec.Reason)
	})

	t.Run("member sees own share only", func(t *testing.T) {
		dec := Evaluate(Identity{Username: "alice", MemberOf: []string{"msc01"}}, "", "msc01")
		assert.True(t, dec.Allowed)
		assert.False(t, dec.AllUsers)
	})

	t.Run("coordinator sees whole account", func(t *testing.T) {
		dec := Evaluate(Identity{Username: "alice", CoordinatorOf: []string{"msc01"}}, "", "msc01")
		assert.True(t, dec.Allowed)
		assert.True(t, dec.AllUsers)
	})

	t.Run("view-all sees whole account", func(t *testing.T) {
		dec := Evaluate(Identity{Username: "root", ViewAll: true}, "", "msc01")
		assert.True(t, dec.Allowed)
		assert.True(t, dec.AllUsers)
	})

	t.Run("account plus username narrows scope", func(t *testing.T) {
		dec := Evaluate(Identity{Username: "root", ViewAll: true}, "bob", "msc01")
		assert.True(t, dec.Allowed)
		assert.False(t, dec.AllUsers)
	})

	t.Run("coordinatorship of one account grants nothing on another", func(t *testing.T) {
		dec := Evaluate(Identity{Username: "alice", CoordinatorOf: []string{"msc02"}}, "", "msc01")
		assert.False(t, dec.Allowed)
	})
}
