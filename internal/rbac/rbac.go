package rbac

import "brandguard/internal/model"

// Capabilities is everything an account may do with one project. Compute it
// once per request and consult the relevant flag.
type Capabilities struct {
	CanViewProject        bool
	CanAnalyze            bool
	CanEditMetadata       bool
	CanEditGuidelines     bool
	CanDeleteProject      bool
	CanManageAssets       bool
	CanReview             bool
	CanDetectConflicts    bool
	CanAdministerAccounts bool
}

// CapabilityFor derives the capabilities of account over project. A nil
// project yields only the role-wide capabilities.
func CapabilityFor(account *model.Account, project *model.Project) Capabilities {
	if account == nil {
		return Capabilities{}
	}
	manager := account.Role.IsManager()
	admin := account.Role == model.RoleAdmin

	caps := Capabilities{
		CanReview:             manager,
		CanDetectConflicts:    manager,
		CanAdministerAccounts: admin,
	}
	if project == nil {
		return caps
	}

	owner := project.OwnerID == account.ID
	caps.CanViewProject = owner || manager
	caps.CanAnalyze = owner || manager
	caps.CanEditMetadata = owner || manager
	caps.CanEditGuidelines = manager
	caps.CanDeleteProject = owner || admin
	caps.CanManageAssets = manager
	return caps
}

// CanViewDesign reports whether account may read design within project.
func CanViewDesign(account *model.Account, design *model.Design, project *model.Project) bool {
	if account == nil || design == nil {
		return false
	}
	if design.AccountID == account.ID {
		return true
	}
	return CapabilityFor(account, project).CanViewProject
}

// CanAnnotate reports whether account may edit the personal annotations of
// design. Only the submitter can, whatever their role.
func CanAnnotate(account *model.Account, design *model.Design) bool {
	return account != nil && design != nil && design.AccountID == account.ID
}
