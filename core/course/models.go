package course

import (
	"time"

	"github.com/azizzt/controlescolar/core"
)

// DefaultCredits applies when a course is created without credits.
const DefaultCredits = 1

type Course struct {
	ID          int             `json:"id"`
	NRC         string          `json:"nrc"`
	Name        string          `json:"nombre"`
	Section     string          `json:"seccion"`
	Days        core.StringList `json:"dias"`
	StartTime   string          `json:"hora_inicio"`
	EndTime     string          `json:"hora_fin"`
	Room        string          `json:"salon"`
	Program     string          `json:"programa_educativo"`
	Credits     int             `json:"creditos"`
	TeacherID   core.NullableID `json:"profesor"`
	TeacherName string          `json:"profesor_nombre,omitempty"`
	CreatedAt   time.Time       `json:"creation"` // UTC
	UpdatedAt   time.Time       `json:"update"`   // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	NRC       core.Code       `json:"nrc" validate:"required,notblank,max=20"`
	Name      string          `json:"nombre" validate:"required,notblank,max=200"`
	Section   string          `json:"seccion" validate:"omitempty,max=20"`
	Days      core.StringList `json:"dias" validate:"omitempty,dive,notblank"`
	StartTime string          `json:"hora_inicio" validate:"omitempty,hhmm"`
	EndTime   string          `json:"hora_fin" validate:"omitempty,hhmm"`
	Room      string          `json:"salon" validate:"omitempty,max=50"`
	Program   string          `json:"programa_educativo" validate:"omitempty,max=200"`
	Credits   *int            `json:"creditos" validate:"omitempty,min=0,max=50"`
	TeacherID core.NullableID `json:"profesor"`
}

func (nc *NewCourse) Clean() {
	nc.NRC = core.Code(core.CleanString(string(nc.NRC)))
	nc.Name = core.CleanString(nc.Name)
	nc.Section = core.CleanString(nc.Section)
	nc.Days = cleanDays(nc.Days)
	nc.StartTime = core.CleanString(nc.StartTime)
	nc.EndTime = core.CleanString(nc.EndTime)
	nc.Room = core.CleanString(nc.Room)
	nc.Program = core.CleanString(nc.Program)
}

func (nc NewCourse) course() Course {
	credits := DefaultCredits
	if nc.Credits != nil {
		credits = *nc.Credits
	}
	crs := Course{
		NRC:       string(nc.NRC),
		Name:      nc.Name,
		Section:   nc.Section,
		Days:      nc.Days,
		StartTime: nc.StartTime,
		EndTime:   nc.EndTime,
		Room:      nc.Room,
		Program:   nc.Program,
		Credits:   credits,
	}
	if nc.TeacherID.Valid {
		crs.TeacherID = core.NullableIDFrom(nc.TeacherID.ID())
	}
	return crs
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// TeacherID distinguishes an omitted reference (no change) from an explicit null or "" (clear).
type UpdateCourse struct {
	ID        int              `json:"id" validate:"required"`
	NRC       *core.Code       `json:"nrc" validate:"omitempty,notblank,max=20"`
	Name      *string          `json:"nombre" validate:"omitempty,notblank,max=200"`
	Section   *string          `json:"seccion" validate:"omitempty,max=20"`
	Days      *core.StringList `json:"dias" validate:"omitempty,dive,notblank"`
	StartTime *string          `json:"hora_inicio" validate:"omitempty,hhmm"`
	EndTime   *string          `json:"hora_fin" validate:"omitempty,hhmm"`
	Room      *string          `json:"salon" validate:"omitempty,max=50"`
	Program   *string          `json:"programa_educativo" validate:"omitempty,max=200"`
	Credits   *int             `json:"creditos" validate:"omitempty,min=0,max=50"`
	TeacherID core.NullableID  `json:"profesor"`
}

func (uc *UpdateCourse) Clean() {
	if uc.NRC != nil {
		nrc := core.Code(core.CleanString(string(*uc.NRC)))
		uc.NRC = &nrc
	}
	for _, s := range []**string{&uc.Name, &uc.Section, &uc.StartTime, &uc.EndTime, &uc.Room, &uc.Program} {
		if *s != nil {
			v := core.CleanString(**s)
			*s = &v
		}
	}
	if uc.Days != nil {
		days := cleanDays(*uc.Days)
		uc.Days = &days
	}
}

func (uc UpdateCourse) apply(crs *Course) {
	if uc.NRC != nil {
		crs.NRC = string(*uc.NRC)
	}
	if uc.Name != nil {
		crs.Name = *uc.Name
	}
	if uc.Section != nil {
		crs.Section = *uc.Section
	}
	if uc.Days != nil {
		crs.Days = *uc.Days
	}
	if uc.StartTime != nil {
		crs.StartTime = *uc.StartTime
	}
	if uc.EndTime != nil {
		crs.EndTime = *uc.EndTime
	}
	if uc.Room != nil {
		crs.Room = *uc.Room
	}
	if uc.Program != nil {
		crs.Program = *uc.Program
	}
	if uc.Credits != nil {
		crs.Credits = *uc.Credits
	}
	if uc.TeacherID.Set {
		crs.TeacherID = uc.TeacherID
	}
}

func cleanDays(days core.StringList) core.StringList {
	cleaned := make(core.StringList, 0, len(days))
	for _, day := range days {
		cleaned = append(cleaned, core.CleanString(day))
	}
	return cleaned
}
