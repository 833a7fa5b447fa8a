package auth

const (
	RoleOperations = "operations"
	RoleFinance    = "finance"
	RoleSales      = "sales"
	RoleTalent     = "talent"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

const (
	SectionEmployees  = "employees"
	SectionTimesheets = "timesheets"
	SectionQuotations = "quotations"
	SectionEnquiries  = "enquiries"
	SectionCases      = "cases"
	SectionJobs       = "jobs"
	SectionAdmin      = "admin"
)

var AllRoles = []string{
	RoleOperations,
	RoleFinance,
	RoleSales,
	RoleTalent,
	RoleAdmin,
	RoleSuperAdmin,
}

var AllSections = []string{
	SectionEmployees,
	SectionTimesheets,
	SectionQuotations,
	SectionEnquiries,
	SectionCases,
	SectionJobs,
	SectionAdmin,
}

// Role allow-lists per guarded action. Workflow transitions compare the caller
// role against exactly these sets.
var (
	TimesheetSubmitRoles  = []string{RoleOperations, RoleAdmin, RoleSuperAdmin}
	TimesheetApproveRoles = []string{RoleFinance, RoleAdmin, RoleSuperAdmin}
	EmployeeWriteRoles    = []string{RoleOperations, RoleAdmin, RoleSuperAdmin}
	QuotationRoles        = []string{RoleSales, RoleAdmin, RoleSuperAdmin}
	RecruitRoles          = []string{RoleTalent, RoleAdmin, RoleSuperAdmin}
	AdminRoles            = []string{RoleAdmin, RoleSuperAdmin}
)

func RoleIn(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	return RoleIn(role, AllRoles)
}
