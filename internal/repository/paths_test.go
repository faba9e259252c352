package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/class-control-api/internal/models"
)

func TestPathScheme(t *testing.T) {
	site := models.SiteRef{Country: "br", State: "sp", Site: "centro"}
	base := "countries/br/states/sp/sites/centro/classes/T001"

	assert.Equal(t, base, ClassPath(site, "T001"))
	assert.Equal(t, base+"/students/A001", StudentPath(site, "T001", "A001"))
	assert.Equal(t, base+"/lectures/05", LecturePath(site, "T001", "05"))
	assert.Equal(t, base+"/lectures/05/attendance/A001", AttendancePath(site, "T001", "05", 0, "A001"))
	assert.Equal(t, base+"/lectures/05/fragments/fragment_2/attendance/A001", AttendancePath(site, "T001", "05", 2, "A001"))
	assert.Equal(t, base+"/makeups/m1", MakeUpPath(site, "T001", "m1"))
	assert.Equal(t, "countries/br/states/sp/instructors/123", StateInstructorPath("br", "sp", "123"))
	assert.Equal(t, "countries/br/states/sp/sites/centro/instructors/123", SiteInstructorPath(site, "123"))
}
