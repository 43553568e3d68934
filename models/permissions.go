package models

// Resource names a permission-controlled surface of the orchestrator.
type Resource string

const (
	ResourceBotAgent          Resource = "BotAgent"
	ResourceAsset             Resource = "Asset"
	ResourceAutomationPackage Resource = "AutomationPackage"
	ResourceExecution         Resource = "Execution"
	ResourceSchedule          Resource = "Schedule"
	ResourceUser              Resource = "User"
	ResourceOrganizationUnit  Resource = "OrganizationUnit"
	ResourceSubscription      Resource = "Subscription"
	ResourceCredential        Resource = "Credential"
	ResourceQueue             Resource = "Queue"
)

// PermissionLevel is the ordered per-resource grant scale. Levels are
// hierarchical: holding a level implies every lower one, so checks compare
// with >=, never with equality.
type PermissionLevel int

const (
	NoAccess PermissionLevel = 0
	View     PermissionLevel = 1
	Create   PermissionLevel = 2
	Update   PermissionLevel = 3
	Delete   PermissionLevel = 4
)

// Grants reports whether a stored level satisfies a required one.
func (l PermissionLevel) Grants(required PermissionLevel) bool {
	return l >= required
}

func (l PermissionLevel) String() string {
	switch l {
	case NoAccess:
		return "NoAccess"
	case View:
		return "View"
	case Create:
		return "Create"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}
