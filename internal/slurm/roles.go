package slurm

import (
	"context"
	"fmt"
	"strings"

	"slurm_usage/internal/usage"
)

// AccountRoles is the user's relationship to one account as recorded in the
// accounting database.
type AccountRoles struct {
	Member      bool
	Coordinator bool
}

// FetchAccountRoles resolves whether username coordinates or belongs to the
// account. Coordinators come from sacctmgr's withcoord listing; membership
// from the existence of an association row.
func (c *Client) FetchAccountRoles(ctx context.Context, account, username string) (AccountRoles, error) {
	var roles AccountRoles

	coordRaw, err := c.run(ctx, fmt.Sprintf("sacctmgr show account %s withcoord -n -P", account))
	if err != nil {
		return roles, &usage.SourceUnavailableError{Op: "sacctmgr", Err: err}
	}
	for _, line := range strings.Split(coordRaw, "\n") {
		parts := strings.Split(strings.TrimSpace(line), "|")
		if len(parts) < 4 || strings.TrimSpace(parts[0]) != account {
			continue
		}
		for _, coord := range strings.Split(parts[3], ",") {
			if strings.TrimSpace(coord) == username {
				roles.Coordinator = true
				break
			}
		}
	}

	assocRaw, err := c.run(ctx, fmt.Sprintf(
		"sacctmgr show association account=%s user=%s format=Account,User -n -P", account, username))
	if err != nil {
		return roles, &usage.SourceUnavailableError{Op: "sacctmgr", Err: err}
	}
	roles.Member = strings.TrimSpace(assocRaw) != ""

	return roles, nil
}
