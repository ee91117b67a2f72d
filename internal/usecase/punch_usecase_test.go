package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/attendance"
	"pdks-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWorkDay(t *testing.T) {
	f := newFixture(t)

	in := f.mustPunch("09:20", "")
	assert.Equal(t, attendance.CheckIn, in.Action)
	assert.Equal(t, "Check-in recorded (10 min late)", in.Message)
	assert.True(t, in.Highlights.IsLate)
	assert.Equal(t, 10, in.Session.LateMinutes)
	assert.Equal(t, model.StatusIn, in.Session.CurrentStatus)
	assert.Equal(t, attendance.CheckOut, in.Next.Default)
	assert.ElementsMatch(t, []attendance.PunchType{attendance.BreakStart, attendance.CheckOut}, in.Next.Options)
	assert.Equal(t, testCode, in.Employee.Code)
	assert.Equal(t, "Ayse Yilmaz", in.Employee.Name)

	brk := f.mustPunch("12:00", attendance.BreakStart)
	assert.Equal(t, "Break started", brk.Message)
	assert.Equal(t, model.StatusBreak, brk.Session.CurrentStatus)
	assert.Equal(t, []attendance.PunchType{attendance.BreakEnd}, brk.Next.Options)

	back := f.mustPunch("12:45", "")
	assert.Equal(t, attendance.BreakEnd, back.Action)
	assert.Equal(t, 45, back.Session.BreakMinutes)

	out := f.mustPunch("17:45", "")
	assert.Equal(t, attendance.CheckOut, out.Action)
	assert.Equal(t, "Check-out recorded (15 min early)", out.Message)
	assert.True(t, out.Highlights.IsEarlyLeave)
	assert.Equal(t, 15, out.Session.EarlyLeaveMinutes)
	assert.Equal(t, 8*60+25-45, out.Session.TotalMinutes)
	assert.Equal(t, 10, out.Session.LateMinutes)
	assert.Equal(t, model.StatusOut, out.Session.CurrentStatus)
	assert.True(t, out.Next.Closed)
	assert.Empty(t, out.Next.Options)

	assert.Equal(t, 4, f.store.punchCount())
	stored, ok := f.store.session(f.employee.ID, testDate)
	require.True(t, ok)
	assert.Equal(t, "HQ", stored.LocationID)
	assert.Equal(t, out.PunchID, stored.LastPunchID)
	assert.False(t, stored.Finalized)
}

func TestRecordAfterCheckoutIsRejected(t *testing.T) {
	f := newFixture(t)
	f.mustPunch("09:00", attendance.CheckIn)
	f.mustPunch("18:00", attendance.CheckOut)

	for _, action := range []attendance.PunchType{"", attendance.CheckIn} {
		_, err := f.punch("18:30", testCode, action)
		require.Error(t, err)
		assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
		assert.Contains(t, err.Error(), "already checked out")
	}
	assert.Equal(t, 2, f.store.punchCount())
}

func TestRecordInvalidTransitionKeepsChallenge(t *testing.T) {
	f := newFixture(t)
	f.at(testDate, "09:00")
	token := f.challenge()

	req := RecordPunchRequest{DeviceID: testDevice, Challenge: token, EmployeeCode: testCode, Action: string(attendance.BreakEnd)}
	_, err := f.uc.Punch.Record(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "expected CHECK_IN")
	assert.Equal(t, 0, f.store.punchCount())
	assert.Equal(t, 1, f.store.challengeCount())

	// the rolled back transaction left the challenge redeemable
	req.Action = string(attendance.CheckIn)
	_, err = f.uc.Punch.Record(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.challengeCount())
}

func TestRecordRejections(t *testing.T) {
	f := newFixture(t)
	f.store.addEmployee(model.Employee{Code: "E999", FirstName: "Gone", Active: false})
	f.store.addDevice(model.Device{ID: "kiosk-2", Status: model.DeviceActive})

	tests := []struct {
		name string
		req  func() RecordPunchRequest
		kind apperror.Kind
	}{
		{
			name: "missing employee code",
			req: func() RecordPunchRequest {
				return RecordPunchRequest{DeviceID: testDevice, Challenge: f.challenge()}
			},
			kind: apperror.InvalidArgument,
		},
		{
			name: "unknown action",
			req: func() RecordPunchRequest {
				return RecordPunchRequest{DeviceID: testDevice, Challenge: f.challenge(), EmployeeCode: testCode, Action: "LUNCH"}
			},
			kind: apperror.InvalidArgument,
		},
		{
			name: "unknown employee",
			req: func() RecordPunchRequest {
				return RecordPunchRequest{DeviceID: testDevice, Challenge: f.challenge(), EmployeeCode: "E404"}
			},
			kind: apperror.NotFound,
		},
		{
			name: "inactive employee",
			req: func() RecordPunchRequest {
				return RecordPunchRequest{DeviceID: testDevice, Challenge: f.challenge(), EmployeeCode: "E999"}
			},
			kind: apperror.PermissionDenied,
		},
		{
			name: "bad challenge wins over unknown employee",
			req: func() RecordPunchRequest {
				return RecordPunchRequest{DeviceID: testDevice, Challenge: "forged", EmployeeCode: "E404"}
			},
			kind: apperror.PermissionDenied,
		},
		{
			name: "challenge of another device",
			req: func() RecordPunchRequest {
				return RecordPunchRequest{DeviceID: "kiosk-2", Challenge: f.challenge(), EmployeeCode: testCode}
			},
			kind: apperror.PermissionDenied,
		},
		{
			name: "broken selfie",
			req: func() RecordPunchRequest {
				return RecordPunchRequest{DeviceID: testDevice, Challenge: f.challenge(), EmployeeCode: testCode, SelfieData: "%%%"}
			},
			kind: apperror.InvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Punch.Record(context.Background(), tt.req())
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
	assert.Equal(t, 0, f.store.punchCount())
}

func TestRecordMissingEmployeeCodeMessage(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Punch.Record(context.Background(), RecordPunchRequest{DeviceID: testDevice, Challenge: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employee_code is required")
}

func TestRecordDeviceDeactivatedAfterIssue(t *testing.T) {
	f := newFixture(t)
	f.at(testDate, "09:00")
	token := f.challenge()
	require.NoError(t, f.uc.Admin.SetDeviceStatus(context.Background(), testDevice, model.DeviceMaintenance))

	_, err := f.uc.Punch.Record(context.Background(), RecordPunchRequest{
		DeviceID: testDevice, Challenge: token, EmployeeCode: testCode,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))
	assert.Equal(t, 1, f.store.challengeCount())
}

func TestRecordConcurrentCheckIn(t *testing.T) {
	f := newFixture(t)
	f.at(testDate, "09:00")
	tokens := []string{f.challenge(), f.challenge(), f.challenge()}
	f.clock.Tick(time.Second)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			_, err := f.uc.Punch.Record(context.Background(), RecordPunchRequest{
				DeviceID: testDevice, Challenge: token, EmployeeCode: testCode, Action: string(attendance.CheckIn),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperror.Is(err, apperror.Conflict):
				conflicts++
			}
		}(token)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, conflicts)
	assert.Equal(t, 1, f.store.punchCount())
	stored, found := f.store.session(f.employee.ID, testDate)
	require.True(t, found)
	assert.Equal(t, 1, stored.Segments)
}

func TestRecordSameInstantIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.at(testDate, "09:00")
	first, second := f.challenge(), f.challenge()

	a, err := f.uc.Punch.Record(context.Background(), RecordPunchRequest{
		DeviceID: testDevice, Challenge: first, EmployeeCode: testCode, Action: string(attendance.CheckIn),
	})
	require.NoError(t, err)
	b, err := f.uc.Punch.Record(context.Background(), RecordPunchRequest{
		DeviceID: testDevice, Challenge: second, EmployeeCode: testCode, Action: string(attendance.CheckIn),
	})
	require.NoError(t, err)

	assert.Equal(t, a.PunchID, b.PunchID)
	assert.Equal(t, 1, f.store.punchCount())
	assert.Equal(t, 1, b.Session.Segments)
}

func TestRecordStoresSelfie(t *testing.T) {
	f := newFixture(t)
	f.at(testDate, "09:00")
	selfie := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))

	res, err := f.uc.Punch.Record(context.Background(), RecordPunchRequest{
		DeviceID: testDevice, Challenge: f.challenge(), EmployeeCode: testCode, SelfieData: selfie,
	})
	require.NoError(t, err)

	require.Len(t, f.uploader.names, 1)
	assert.Equal(t, "selfies/"+testDate+"/"+res.PunchID, f.uploader.names[0])

	punches, err := f.store.repo().Punch.ListByEmployeeBetween(context.Background(), f.employee.ID, time.Time{}, f.clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, punches, 1)
	require.NotNil(t, punches[0].SelfieURL)
	assert.Equal(t, "/uploads/selfies/"+testDate+"/"+res.PunchID+".jpg", *punches[0].SelfieURL)
	require.NotNil(t, punches[0].Confidence)
	assert.InDelta(t, 0.8, *punches[0].Confidence, 1e-9)
	assert.Equal(t, model.SourceKiosk, punches[0].Source)
	assert.Equal(t, "HQ", punches[0].LocationID)
}

func TestRecordSurvivesSelfieUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errors.New("bucket unavailable")
	f.at(testDate, "09:00")

	_, err := f.uc.Punch.Record(context.Background(), RecordPunchRequest{
		DeviceID: testDevice, Challenge: f.challenge(), EmployeeCode: testCode,
		SelfieData: base64.StdEncoding.EncodeToString([]byte("jpeg bytes")),
	})
	require.NoError(t, err)

	punches, err := f.store.repo().Punch.ListBetween(context.Background(), time.Time{}, f.clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, punches, 1)
	assert.Nil(t, punches[0].SelfieURL)
}

func TestRecordManualClosesForgottenCheckout(t *testing.T) {
	f := newFixture(t)
	f.mustPunch("09:00", attendance.CheckIn)
	f.at("2026-03-03", "10:00")

	outAt := time.Date(2026, 3, 2, 18, 0, 0, 0, testLoc)
	res, err := f.uc.Punch.RecordManual(context.Background(), ManualPunchRequest{
		EmployeeID: f.employee.ID,
		Action:     string(attendance.CheckOut),
		Timestamp:  outAt,
		Reason:     "forgot to scan out",
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.CheckOut, res.Action)
	assert.Equal(t, model.StatusOut, res.Session.CurrentStatus)
	assert.Equal(t, 9*60, res.Session.TotalMinutes)
	assert.Equal(t, 0, res.Session.EarlyLeaveMinutes)

	stored, ok := f.store.session(f.employee.ID, testDate)
	require.True(t, ok)
	assert.Equal(t, res.PunchID, stored.LastPunchID)

	punches, err := f.store.repo().Punch.ListBetween(context.Background(), outAt, outAt.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, punches, 1)
	assert.Equal(t, model.SourceAdmin, punches[0].Source)
	require.NotNil(t, punches[0].Reason)
	assert.Equal(t, "forgot to scan out", *punches[0].Reason)
}

func TestRecordManualRejections(t *testing.T) {
	f := newFixture(t)
	noon := f.at(testDate, "12:00")
	earlier := noon.Add(-time.Hour)

	tests := []struct {
		name string
		req  ManualPunchRequest
		kind apperror.Kind
	}{
		{
			name: "missing reason",
			req:  ManualPunchRequest{EmployeeID: f.employee.ID, Action: "CHECK_IN", Timestamp: earlier},
			kind: apperror.InvalidArgument,
		},
		{
			name: "future timestamp",
			req:  ManualPunchRequest{EmployeeID: f.employee.ID, Action: "CHECK_IN", Timestamp: noon.Add(time.Hour), Reason: "x"},
			kind: apperror.InvalidArgument,
		},
		{
			name: "unknown employee",
			req:  ManualPunchRequest{EmployeeID: 4040, Action: "CHECK_IN", Timestamp: earlier, Reason: "x"},
			kind: apperror.NotFound,
		},
		{
			name: "break end without break",
			req:  ManualPunchRequest{EmployeeID: f.employee.ID, Action: "BREAK_END", Timestamp: earlier, Reason: "x"},
			kind: apperror.Conflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Punch.RecordManual(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
	assert.Equal(t, 0, f.store.punchCount())
}

func TestRecordWithNewSegmentPolicy(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Admin.UpsertPolicy(context.Background(), PolicyRequest{
		LocationID:     "HQ",
		GraceInMinutes: 5,
		ScheduledStart: "08:30",
		ScheduledEnd:   "17:30",
		AfterCheckout:  model.AfterCheckoutNewSegment,
	})
	require.NoError(t, err)

	first := f.mustPunch("08:40", "")
	assert.Equal(t, 5, first.Session.LateMinutes)
	f.mustPunch("12:00", attendance.CheckOut)
	again := f.mustPunch("13:00", "")
	assert.Equal(t, attendance.CheckIn, again.Action)
	out := f.mustPunch("17:30", "")

	assert.Equal(t, 2, out.Session.Segments)
	assert.Equal(t, 200+270, out.Session.TotalMinutes)
	assert.Equal(t, 5, out.Session.LateMinutes)
	assert.Equal(t, 0, out.Session.EarlyLeaveMinutes)
	assert.False(t, out.Next.Closed)
}

func TestRecordUsesShiftAndHoliday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Admin.UpsertShift(ctx, ShiftRequest{EmployeeID: f.employee.ID, Date: testDate, Start: "13:00", End: "22:00"})
	require.NoError(t, err)
	res := f.mustPunch("13:30", "")
	assert.Equal(t, 20, res.Session.LateMinutes)

	other := f.store.addEmployee(model.Employee{Code: "E002", FirstName: "Mehmet", LocationID: "HQ", Active: true})
	_, err = f.uc.Admin.CreateHoliday(ctx, HolidayRequest{Date: "2026-03-03", Description: "Company day"})
	require.NoError(t, err)
	f.at("2026-03-03", "11:00")
	res, err = f.uc.Punch.Record(ctx, RecordPunchRequest{DeviceID: testDevice, Challenge: f.challenge(), EmployeeCode: other.Code})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Session.LateMinutes)
	assert.False(t, res.Highlights.IsLate)
}

func TestRecordStampsStoredPrecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 09:10:59.9996 rounds up to 09:11 in a datetime(3) column.
	at := f.at(testDate, "09:10").Add(59*time.Second + 999600*time.Microsecond)
	f.clock.Set(at)
	res, err := f.uc.Punch.Record(ctx, RecordPunchRequest{
		DeviceID:     testDevice,
		Challenge:    f.challenge(),
		EmployeeCode: testCode,
		Action:       string(attendance.CheckIn),
	})
	require.NoError(t, err)

	assert.True(t, res.Timestamp.Equal(at.Truncate(time.Millisecond)))
	assert.Equal(t, 0, res.Session.LateMinutes)

	day, err := f.uc.Session.Get(ctx, f.employee.ID, testDate)
	require.NoError(t, err)
	require.Len(t, day.Punches, 1)
	assert.True(t, day.Punches[0].Timestamp.Equal(res.Timestamp))

	sched, err := attendance.NewSchedule(testDate, "09:00", "18:00", testLoc)
	require.NoError(t, err)
	rebuilt, _ := attendance.Replay(enginePunches(day.Punches, testLoc), sched, testSettings().DefaultPolicy)
	assert.Equal(t, res.Session.LateMinutes, rebuilt.LateMinutes)
}
