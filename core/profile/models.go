package profile

import (
	"time"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
)

type (
	Admin struct {
		ID         int        `json:"id"`
		User       user.Basic `json:"user"`
		AdminCode  string     `json:"clave_admin"`
		Phone      string     `json:"telefono"`
		RFC        string     `json:"rfc"`
		Age        int        `json:"edad"`
		Occupation string     `json:"ocupacion"`
		CreatedAt  time.Time  `json:"creation"` // UTC
		UpdatedAt  time.Time  `json:"update"`   // UTC
	}

	Teacher struct {
		ID           int             `json:"id"`
		User         user.Basic      `json:"user"`
		WorkerID     string          `json:"id_trabajador"`
		BirthDate    core.Date       `json:"fecha_nacimiento"`
		Phone        string          `json:"telefono"`
		RFC          string          `json:"rfc"`
		Office       string          `json:"cubiculo"`
		ResearchArea string          `json:"area_investigacion"`
		Subjects     core.StringList `json:"materias_json"`
		CreatedAt    time.Time       `json:"creation"` // UTC
		UpdatedAt    time.Time       `json:"update"`   // UTC
	}

	Student struct {
		ID           int        `json:"id"`
		User         user.Basic `json:"user"`
		EnrollmentID string     `json:"matricula"`
		CURP         string     `json:"curp"`
		RFC          string     `json:"rfc"`
		BirthDate    core.Date  `json:"fecha_nacimiento"`
		Age          int        `json:"edad"`
		Phone        string     `json:"telefono"`
		Occupation   string     `json:"ocupacion"`
		CreatedAt    time.Time  `json:"creation"` // UTC
		UpdatedAt    time.Time  `json:"update"`   // UTC
	}

	// Totals counts the profiles of active users per role.
	Totals struct {
		Admins   int `json:"admins"`
		Teachers int `json:"maestros"`
		Students int `json:"alumnos"`
	}

	GetFilter struct {
		ID     int
		UserID int
	}
)

// NewAdmin contains information needed to create a new Admin.
type NewAdmin struct {
	user.Credentials
	AdminCode  string `json:"clave_admin" validate:"required,notblank,max=50"`
	Phone      string `json:"telefono" validate:"omitempty,max=20"`
	RFC        string `json:"rfc" validate:"required,rfc"`
	Age        int    `json:"edad" validate:"omitempty,min=0,max=120"`
	Occupation string `json:"ocupacion" validate:"omitempty,max=100"`
}

func (na *NewAdmin) Clean() {
	na.Credentials.Clean()
	na.AdminCode = core.CleanString(na.AdminCode)
	na.Phone = core.CleanString(na.Phone)
	na.RFC = core.UpperString(na.RFC)
	na.Occupation = core.CleanString(na.Occupation)
}

func (na NewAdmin) profile() Admin {
	return Admin{
		AdminCode:  na.AdminCode,
		Phone:      na.Phone,
		RFC:        na.RFC,
		Age:        na.Age,
		Occupation: na.Occupation,
	}
}

// UpdateAdmin defines what information may be provided to modify an existing Admin.
// Omitted fields are left untouched.
type UpdateAdmin struct {
	ID int `json:"id" validate:"required"`
	user.UpdateNames
	AdminCode  *string `json:"clave_admin" validate:"omitempty,notblank,max=50"`
	Phone      *string `json:"telefono" validate:"omitempty,max=20"`
	RFC        *string `json:"rfc" validate:"omitempty,rfc"`
	Age        *int    `json:"edad" validate:"omitempty,min=0,max=120"`
	Occupation *string `json:"ocupacion" validate:"omitempty,max=100"`
}

func (ua *UpdateAdmin) Clean() {
	ua.UpdateNames.Clean()
	cleanPtr(&ua.AdminCode, trim)
	cleanPtr(&ua.Phone, trim)
	cleanPtr(&ua.RFC, core.UpperString)
	cleanPtr(&ua.Occupation, trim)
}

func (ua UpdateAdmin) apply(adm *Admin) {
	setIfPresent(&adm.AdminCode, ua.AdminCode)
	setIfPresent(&adm.Phone, ua.Phone)
	setIfPresent(&adm.RFC, ua.RFC)
	setIfPresent(&adm.Age, ua.Age)
	setIfPresent(&adm.Occupation, ua.Occupation)
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	user.Credentials
	WorkerID     string          `json:"id_trabajador" validate:"required,notblank,max=50"`
	BirthDate    core.Date       `json:"fecha_nacimiento" validate:"required"`
	Phone        string          `json:"telefono" validate:"omitempty,max=20"`
	RFC          string          `json:"rfc" validate:"required,rfc"`
	Office       string          `json:"cubiculo" validate:"omitempty,max=50"`
	ResearchArea string          `json:"area_investigacion" validate:"omitempty,max=150"`
	Subjects     core.StringList `json:"materias_json" validate:"omitempty,dive,notblank"`
}

func (nt *NewTeacher) Clean() {
	nt.Credentials.Clean()
	nt.WorkerID = core.CleanString(nt.WorkerID)
	nt.Phone = core.CleanString(nt.Phone)
	nt.RFC = core.UpperString(nt.RFC)
	nt.Office = core.CleanString(nt.Office)
	nt.ResearchArea = core.CleanString(nt.ResearchArea)
	nt.Subjects = cleanList(nt.Subjects)
}

func (nt NewTeacher) profile() Teacher {
	return Teacher{
		WorkerID:     nt.WorkerID,
		BirthDate:    nt.BirthDate,
		Phone:        nt.Phone,
		RFC:          nt.RFC,
		Office:       nt.Office,
		ResearchArea: nt.ResearchArea,
		Subjects:     nt.Subjects,
	}
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
type UpdateTeacher struct {
	ID int `json:"id" validate:"required"`
	user.UpdateNames
	WorkerID     *string          `json:"id_trabajador" validate:"omitempty,notblank,max=50"`
	BirthDate    *core.Date       `json:"fecha_nacimiento" validate:"omitempty,required"`
	Phone        *string          `json:"telefono" validate:"omitempty,max=20"`
	RFC          *string          `json:"rfc" validate:"omitempty,rfc"`
	Office       *string          `json:"cubiculo" validate:"omitempty,max=50"`
	ResearchArea *string          `json:"area_investigacion" validate:"omitempty,max=150"`
	Subjects     *core.StringList `json:"materias_json" validate:"omitempty,dive,notblank"`
}

func (ut *UpdateTeacher) Clean() {
	ut.UpdateNames.Clean()
	cleanPtr(&ut.WorkerID, trim)
	cleanPtr(&ut.Phone, trim)
	cleanPtr(&ut.RFC, core.UpperString)
	cleanPtr(&ut.Office, trim)
	cleanPtr(&ut.ResearchArea, trim)
	if ut.Subjects != nil {
		subjects := cleanList(*ut.Subjects)
		ut.Subjects = &subjects
	}
}

func (ut UpdateTeacher) apply(tch *Teacher) {
	setIfPresent(&tch.WorkerID, ut.WorkerID)
	setIfPresent(&tch.BirthDate, ut.BirthDate)
	setIfPresent(&tch.Phone, ut.Phone)
	setIfPresent(&tch.RFC, ut.RFC)
	setIfPresent(&tch.Office, ut.Office)
	setIfPresent(&tch.ResearchArea, ut.ResearchArea)
	setIfPresent(&tch.Subjects, ut.Subjects)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	user.Credentials
	EnrollmentID string    `json:"matricula" validate:"required,notblank,max=50"`
	CURP         string    `json:"curp" validate:"required,curp"`
	RFC          string    `json:"rfc" validate:"omitempty,rfc"`
	BirthDate    core.Date `json:"fecha_nacimiento" validate:"required"`
	Age          int       `json:"edad" validate:"omitempty,min=0,max=120"`
	Phone        string    `json:"telefono" validate:"omitempty,max=20"`
	Occupation   string    `json:"ocupacion" validate:"omitempty,max=100"`
}

func (ns *NewStudent) Clean() {
	ns.Credentials.Clean()
	ns.EnrollmentID = core.CleanString(ns.EnrollmentID)
	ns.CURP = core.UpperString(ns.CURP)
	ns.RFC = core.UpperString(ns.RFC)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Occupation = core.CleanString(ns.Occupation)
}

func (ns NewStudent) profile() Student {
	return Student{
		EnrollmentID: ns.EnrollmentID,
		CURP:         ns.CURP,
		RFC:          ns.RFC,
		BirthDate:    ns.BirthDate,
		Age:          ns.Age,
		Phone:        ns.Phone,
		Occupation:   ns.Occupation,
	}
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	ID int `json:"id" validate:"required"`
	user.UpdateNames
	EnrollmentID *string    `json:"matricula" validate:"omitempty,notblank,max=50"`
	CURP         *string    `json:"curp" validate:"omitempty,curp"`
	RFC          *string    `json:"rfc" validate:"omitempty,rfc"`
	BirthDate    *core.Date `json:"fecha_nacimiento" validate:"omitempty,required"`
	Age          *int       `json:"edad" validate:"omitempty,min=0,max=120"`
	Phone        *string    `json:"telefono" validate:"omitempty,max=20"`
	Occupation   *string    `json:"ocupacion" validate:"omitempty,max=100"`
}

func (us *UpdateStudent) Clean() {
	us.UpdateNames.Clean()
	cleanPtr(&us.EnrollmentID, trim)
	cleanPtr(&us.CURP, core.UpperString)
	cleanPtr(&us.RFC, core.UpperString)
	cleanPtr(&us.Phone, trim)
	cleanPtr(&us.Occupation, trim)
}

func (us UpdateStudent) apply(std *Student) {
	setIfPresent(&std.EnrollmentID, us.EnrollmentID)
	setIfPresent(&std.CURP, us.CURP)
	setIfPresent(&std.RFC, us.RFC)
	setIfPresent(&std.BirthDate, us.BirthDate)
	setIfPresent(&std.Age, us.Age)
	setIfPresent(&std.Phone, us.Phone)
	setIfPresent(&std.Occupation, us.Occupation)
}

func trim(s string) string { return core.CleanString(s) }

func cleanPtr(s **string, clean func(string) string) {
	if *s != nil {
		v := clean(**s)
		*s = &v
	}
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func cleanList(list core.StringList) core.StringList {
	cleaned := make(core.StringList, 0, len(list))
	for _, item := range list {
		cleaned = append(cleaned, core.CleanString(item))
	}
	return cleaned
}
