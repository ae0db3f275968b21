package model

import "time"

// Role is the closed set of account roles. Authorization uses Role.Can with
// a fixed capability, never string comparison against free-form role lists.
type Role string

const (
	RoleHolder  Role = "holder"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Capability names an action gated by role.
type Capability string

const (
	CapExecuteProposals Capability = "execute_proposals"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleHolder:  {},
	RoleManager: {CapExecuteProposals: true},
	RoleAdmin:   {CapExecuteProposals: true},
}

// Can reports whether the role grants the capability. Unknown roles grant
// nothing.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

// Holder represents a credential holder account.
type Holder struct {
	HolderID   string    `json:"holderId"`
	Role       Role      `json:"role"`
	FirstSeen  time.Time `json:"-"`
	LastActive time.Time `json:"-"`
}

// VotingPowerSnapshot is the resolver's answer for a holder within a scope.
// DelegatedPower is reserved for delegation support and is currently always
// zero.
type VotingPowerSnapshot struct {
	HolderID            string  `json:"holderId"`
	Scope               string  `json:"scope"`
	DirectPower         int64   `json:"directPower"`
	DelegatedPower      int64   `json:"delegatedPower"`
	TotalPower          int64   `json:"totalPower"`
	OwnershipPercentage float64 `json:"ownershipPercentage"`
}

// StatsResponse is the API response for global governance statistics.
type StatsResponse struct {
	TotalProposals    int            `json:"totalProposals"`
	ProposalsByStatus map[string]int `json:"proposalsByStatus"`
	TotalVotes        int            `json:"totalVotes"`
	DistinctVoters    int            `json:"distinctVoters"`
	TotalProperties   int            `json:"totalProperties"`
	ActiveVoters24h   int            `json:"activeVoters24h"`
}
