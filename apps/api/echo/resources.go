package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	// filterParam maps a query parameter onto a record attribute condition.
	filterParam struct {
		field string
		op    school.Op
	}

	// resourceDef describes one REST resource family. All handlers funnel
	// through the access gateway; role rules live there, not here.
	resourceDef struct {
		res     school.Resource
		path    string
		filters map[string]filterParam
		bind    func(ctx echo.Context) (school.Record, error)
		// prepare fills server-side fields on create
		prepare func(ctx echo.Context, api *resourceApi, actor access.Actor, rec school.Record) (school.Record, error)
		// merge carries immutable fields over from the stored record on update
		merge func(rec, existing school.Record) school.Record
	}

	resourceApi struct {
		gw       *access.Gateway
		validate *validator.Validate
	}
)

func registerResourceAPI(g *echo.Group, jwt, actor echo.MiddlewareFunc, gw *access.Gateway, validate *validator.Validate) {
	api := resourceApi{gw: gw, validate: validate}

	for _, def := range resourceDefs {
		def := def
		rg := g.Group(def.path, jwt, actor)
		rg.GET("", api.list(def))
		rg.POST("", api.create(def))
		rg.GET("/:id", api.retrieve(def))
		rg.PUT("/:id", api.update(def))
		rg.DELETE("/:id", api.destroy(def))
	}
}

// Handlers

func (api *resourceApi) list(def resourceDef) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := getContextActor(ctx)
		if err != nil {
			return err
		}

		recs, err := api.gw.List(ctx.Request().Context(), actor, def.res, bindFilter(ctx, def))
		if err != nil {
			return errors.Wrapf(err, "listing %s", def.res)
		}
		if recs == nil {
			recs = []school.Record{}
		}
		return ctx.JSON(http.StatusOK, recs)
	}
}

func (api *resourceApi) retrieve(def resourceDef) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := getContextActor(ctx)
		if err != nil {
			return err
		}

		rec, err := api.gw.Read(ctx.Request().Context(), actor, def.res, ctx.Param("id"))
		if err != nil {
			return errors.Wrapf(err, "reading %s", def.res)
		}
		return ctx.JSON(http.StatusOK, rec)
	}
}

func (api *resourceApi) create(def resourceDef) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := getContextActor(ctx)
		if err != nil {
			return err
		}

		rec, err := def.bind(ctx)
		if err != nil {
			return errors.Wrapf(err, "binding %s", def.res)
		}
		if def.prepare != nil {
			if rec, err = def.prepare(ctx, api, actor, rec); err != nil {
				return err
			}
		}
		if err = api.validate.Struct(rec); err != nil {
			return err
		}

		rec, err = api.gw.Create(ctx.Request().Context(), actor, def.res, rec)
		if err != nil {
			return errors.Wrapf(err, "creating %s", def.res)
		}
		return ctx.JSON(http.StatusCreated, rec)
	}
}

func (api *resourceApi) update(def resourceDef) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := getContextActor(ctx)
		if err != nil {
			return err
		}

		// in-scope existence check; out-of-scope reads as absent
		existing, err := api.gw.Read(ctx.Request().Context(), actor, def.res, ctx.Param("id"))
		if err != nil {
			return errors.Wrapf(err, "reading %s", def.res)
		}

		rec, err := def.bind(ctx)
		if err != nil {
			return errors.Wrapf(err, "binding %s", def.res)
		}
		rec = school.WithID(rec, ctx.Param("id"))
		if def.merge != nil {
			rec = def.merge(rec, existing)
		}
		if err = api.validate.Struct(rec); err != nil {
			return err
		}

		rec, err = api.gw.Update(ctx.Request().Context(), actor, def.res, rec)
		if err != nil {
			return errors.Wrapf(err, "updating %s", def.res)
		}
		return ctx.JSON(http.StatusOK, rec)
	}
}

func (api *resourceApi) destroy(def resourceDef) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := getContextActor(ctx)
		if err != nil {
			return err
		}

		if err := api.gw.Delete(ctx.Request().Context(), actor, def.res, ctx.Param("id")); err != nil {
			return errors.Wrapf(err, "deleting %s", def.res)
		}
		return ctx.NoContent(http.StatusNoContent)
	}
}

// bindFilter builds a predicate from the whitelisted query parameters. The
// gateway intersects it with the caller's scope; filters narrow, never widen.
func bindFilter(ctx echo.Context, def resourceDef) school.Predicate {
	var pred school.Predicate
	for param, fp := range def.filters {
		val := ctx.QueryParam(param)
		if val == "" {
			continue
		}
		switch fp.op {
		case school.OpAnyOf, school.OpIn:
			pred = pred.And(school.Where(fp.field, fp.op, []string{val}))
		default:
			pred = pred.And(school.Where(fp.field, fp.op, val))
		}
	}
	return pred
}

var resourceDefs = []resourceDef{
	{
		res:  school.ResourceStudent,
		path: "/students",
		filters: map[string]filterParam{
			"class_id": {field: "class_id", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Student
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceStaff,
		path: "/staff",
		filters: map[string]filterParam{
			"class_id": {field: "class_ids", op: school.OpAnyOf},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Staff
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceParent,
		path: "/parents",
		filters: map[string]filterParam{
			"student_id": {field: "student_ids", op: school.OpAnyOf},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Parent
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceClass,
		path: "/classes",
		filters: map[string]filterParam{
			"academic_year_id": {field: "academic_year_id", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Class
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceSubject,
		path: "/subjects",
		filters: map[string]filterParam{
			"code": {field: "code", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Subject
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceAcademicYear,
		path: "/academic-years",
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.AcademicYear
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceResult,
		path: "/results",
		filters: map[string]filterParam{
			"student_id":       {field: "student_id", op: school.OpEq},
			"subject_id":       {field: "subject_id", op: school.OpEq},
			"class_id":         {field: "class_id", op: school.OpEq},
			"academic_year_id": {field: "academic_year_id", op: school.OpEq},
			"term":             {field: "term", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Result
			err := ctx.Bind(&rec)
			return rec, err
		},
		prepare: prepareResult,
		merge:   mergeResult,
	},
	{
		res:  school.ResourceAttendance,
		path: "/attendance",
		filters: map[string]filterParam{
			"student_id": {field: "student_id", op: school.OpEq},
			"class_id":   {field: "class_id", op: school.OpEq},
			"status":     {field: "status", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Attendance
			err := ctx.Bind(&rec)
			return rec, err
		},
		prepare: prepareAttendance,
		merge:   mergeAttendance,
	},
	{
		res:  school.ResourceFeeStructure,
		path: "/fee-structures",
		filters: map[string]filterParam{
			"academic_year_id": {field: "academic_year_id", op: school.OpEq},
			"fee_type":         {field: "fee_type", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.FeeStructure
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceFeePayment,
		path: "/fee-payments",
		filters: map[string]filterParam{
			"student_id":       {field: "student_id", op: school.OpEq},
			"academic_year_id": {field: "academic_year_id", op: school.OpEq},
			"term":             {field: "term", op: school.OpEq},
			"status":           {field: "status", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.FeePayment
			err := ctx.Bind(&rec)
			return rec, err
		},
	},
	{
		res:  school.ResourceAnnouncement,
		path: "/announcements",
		filters: map[string]filterParam{
			"priority": {field: "priority", op: school.OpEq},
		},
		bind: func(ctx echo.Context) (school.Record, error) {
			var rec school.Announcement
			err := ctx.Bind(&rec)
			return rec, err
		},
		prepare: prepareAnnouncement,
		merge:   mergeAnnouncement,
	},
}

// prepareResult stamps the uploading staff and computes the totals and grade.
// The class is not taken from the payload; the gateway pins it to the
// student's actual class on every write.
func prepareResult(ctx echo.Context, api *resourceApi, actor access.Actor, rec school.Record) (school.Record, error) {
	res, ok := rec.(school.Result)
	if !ok {
		return nil, errors.Errorf("unexpected record type %T for result", rec)
	}

	if actor.Staff != nil {
		res.UploadedBy = actor.Staff.ID
	}
	res.UploadedAt = user.NowFunc().UTC()
	res.Finalize()
	return res, nil
}

func mergeResult(rec, existing school.Record) school.Record {
	res, ok := rec.(school.Result)
	old, ook := existing.(school.Result)
	if !ok || !ook {
		return rec
	}
	res.ClassID = old.ClassID
	res.UploadedBy = old.UploadedBy
	res.UploadedAt = old.UploadedAt
	res.Finalize()
	return res
}

func prepareAttendance(ctx echo.Context, api *resourceApi, actor access.Actor, rec school.Record) (school.Record, error) {
	att, ok := rec.(school.Attendance)
	if !ok {
		return nil, errors.Errorf("unexpected record type %T for attendance", rec)
	}

	if actor.Staff != nil {
		att.MarkedBy = actor.Staff.ID
	}
	if att.Date.IsZero() {
		att.Date = user.NowFunc().UTC()
	}
	return att, nil
}

func mergeAttendance(rec, existing school.Record) school.Record {
	att, ok := rec.(school.Attendance)
	old, ook := existing.(school.Attendance)
	if !ok || !ook {
		return rec
	}
	att.ClassID = old.ClassID
	att.MarkedBy = old.MarkedBy
	return att
}

func prepareAnnouncement(ctx echo.Context, api *resourceApi, actor access.Actor, rec school.Record) (school.Record, error) {
	ann, ok := rec.(school.Announcement)
	if !ok {
		return nil, errors.Errorf("unexpected record type %T for announcement", rec)
	}

	ann.CreatedBy = actor.User.ID
	ann.CreatedAt = user.NowFunc().UTC()
	ann.IsActive = true
	if len(ann.Audience) == 0 {
		ann.Audience = []string{school.AudienceAll}
	}
	return ann, nil
}

func mergeAnnouncement(rec, existing school.Record) school.Record {
	ann, ok := rec.(school.Announcement)
	old, ook := existing.(school.Announcement)
	if !ok || !ook {
		return rec
	}
	ann.CreatedBy = old.CreatedBy
	ann.CreatedAt = old.CreatedAt
	return ann
}
