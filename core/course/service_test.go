package course_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/course"
	"github.com/azizzt/controlescolar/tests"
)

func fieldErrors(t *testing.T, err error) []core.FieldError {
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	return vErr.Fields
}

func TestService_Create(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	tch := testutil.CreateTeacher(t, svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")

	zero := 0
	crs, err := svc.Courses.Create(ctx, course.NewCourse{
		NRC:       " 1234 ",
		Name:      " Redes ",
		Days:      core.StringList{" Lunes "},
		Credits:   &zero,
		TeacherID: core.NullableIDFrom(tch.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "1234", crs.NRC)
	assert.Equal(t, "Redes", crs.Name)
	assert.Equal(t, core.StringList{"Lunes"}, crs.Days)
	assert.Equal(t, 0, crs.Credits, "explicit zero credits are kept")
	assert.Equal(t, tch.ID, crs.TeacherID.ID())

	t.Run("Default credits", func(t *testing.T) {
		crs, err := svc.Courses.Create(ctx, course.NewCourse{NRC: "5678", Name: "Cálculo"})
		require.NoError(t, err)
		assert.Equal(t, course.DefaultCredits, crs.Credits)
		assert.Equal(t, core.StringList{}, crs.Days)
		assert.False(t, crs.TeacherID.Valid)
	})

	t.Run("Duplicated NRC", func(t *testing.T) {
		_, err := svc.Courses.Create(ctx, course.NewCourse{NRC: "1234", Name: "Otra"})
		assert.Equal(t, []core.FieldError{{Field: "nrc", Error: course.ErrNRCExists.Error()}}, fieldErrors(t, err))
	})

	t.Run("Unknown teacher", func(t *testing.T) {
		_, err := svc.Courses.Create(ctx, course.NewCourse{NRC: "9999", Name: "Otra", TeacherID: core.NullableIDFrom(999)})
		assert.Equal(t, []core.FieldError{{Field: "profesor", Error: course.ErrTeacherNotFound.Error()}}, fieldErrors(t, err))

		_, count, err := svc.Courses.Query(ctx, core.ListQuery{Search: "9999", SearchFields: []string{"nrc"}})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestService_Update(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	tch := testutil.CreateTeacher(t, svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	crs := testutil.CreateCourse(t, svc.Courses, "1234", "Redes", tch.ID)

	t.Run("Omitted teacher is kept", func(t *testing.T) {
		room := "CCO2-101"
		updated, err := svc.Courses.Update(ctx, course.UpdateCourse{ID: crs.ID, Room: &room})
		require.NoError(t, err)
		assert.Equal(t, "CCO2-101", updated.Room)
		assert.Equal(t, tch.ID, updated.TeacherID.ID())
		assert.Equal(t, "Teresa Campos", updated.TeacherName)
	})

	t.Run("Cleared teacher", func(t *testing.T) {
		updated, err := svc.Courses.Update(ctx, course.UpdateCourse{ID: crs.ID, TeacherID: core.NullableID{Set: true}})
		require.NoError(t, err)
		assert.False(t, updated.TeacherID.Valid)
		assert.Empty(t, updated.TeacherName)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := svc.Courses.Update(ctx, course.UpdateCourse{ID: 999})
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("Invalid schedule", func(t *testing.T) {
		end := "8:30"
		_, err := svc.Courses.Update(ctx, course.UpdateCourse{ID: crs.ID, EndTime: &end})
		assert.Error(t, err)
	})
}

func TestService_TeacherDeletion(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	tch := testutil.CreateTeacher(t, svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	crs := testutil.CreateCourse(t, svc.Courses, "1234", "Redes", tch.ID)

	require.NoError(t, svc.Profiles.DeleteTeacher(ctx, tch.ID))

	got, err := svc.Courses.Get(ctx, crs.ID)
	require.NoError(t, err)
	assert.False(t, got.TeacherID.Valid)

	require.NoError(t, svc.Courses.Delete(ctx, crs.ID))
	_, err = svc.Courses.Get(ctx, crs.ID)
	assert.True(t, errors.Is(err, course.ErrNotFound))
	assert.True(t, errors.Is(svc.Courses.Delete(ctx, crs.ID), course.ErrNotFound))
}
