package access

import "github.com/markaz-annoor/annoor-api/internal/models"

// Screen routes of the dashboard application.
const (
	RouteAdminHome      Route = "/admin"
	RouteUsers          Route = "/admin/users"
	RouteStudents       Route = "/students"
	RouteTeachers       Route = "/teachers"
	RouteActivities     Route = "/activities"
	RouteParticipations Route = "/participations"
	RouteAlerts         Route = "/alerts"
	RouteLeaves         Route = "/leaves"
	RouteExports        Route = "/exports"
	RouteStaffHome      Route = "/staff"
	RouteStudentHome    Route = "/me"
	RouteMyProgress     Route = "/me/progress"
)

// DefaultTable returns the static permission table the application ships
// with. It is built once during startup and treated as immutable.
func DefaultTable() *Table {
	return NewTable(
		map[Route][]models.Role{
			RouteAdminHome:      {models.RoleAdmin},
			RouteUsers:          {models.RoleAdmin},
			RouteStudents:       {models.RoleAdmin, models.RoleStaff},
			RouteTeachers:       {models.RoleAdmin, models.RoleStaff},
			RouteActivities:     {models.RoleAdmin, models.RoleStaff},
			RouteParticipations: {models.RoleAdmin, models.RoleStaff},
			RouteAlerts:         {models.RoleAdmin, models.RoleStaff},
			RouteLeaves:         {models.RoleAdmin, models.RoleStaff},
			RouteExports:        {models.RoleAdmin, models.RoleStaff},
			RouteStaffHome:      {models.RoleStaff},
			RouteStudentHome:    {models.RoleStudent},
			RouteMyProgress:     {models.RoleStudent},
		},
		map[models.Role]Route{
			models.RoleAdmin:   RouteAdminHome,
			models.RoleStaff:   RouteStaffHome,
			models.RoleStudent: RouteStudentHome,
		},
	)
}
