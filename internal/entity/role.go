package entity

// Role identifies one of the two match participants.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

func (that Role) Opponent() Role {
	if that == RoleA {
		return RoleB
	}
	return RoleA
}

func (that Role) IsValid() bool {
	return that == RoleA || that == RoleB
}
