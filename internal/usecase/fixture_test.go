package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"pdks-backend/internal/attendance"
	"pdks-backend/internal/lock"
	"pdks-backend/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testDate   = "2026-03-02"
	testDevice = "kiosk-1"
	testCode   = "E001"
)

var testLoc = time.FixedZone("TRT", 3*60*60)

// fakeClock moves forward by step on every read when step is set.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func (c *fakeClock) Tick(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = step
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeUploader struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, name string, _ []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.names = append(u.names, name)
	return "/uploads/" + name + ".jpg", nil
}

type fixture struct {
	t        *testing.T
	store    *memStore
	clock    *fakeClock
	uploader *fakeUploader
	uc       *Usecases
	employee model.Employee
}

func testSettings() Settings {
	return Settings{
		Location:        testLoc,
		ChallengeTTL:    20 * time.Second,
		ChallengeSecret: []byte("test-challenge-secret-0123"),
		DefaultPolicy: attendance.Policy{
			GraceInMinutes: 10,
			AfterCheckout:  attendance.AfterCheckoutReject,
		},
		DefaultStart: "09:00",
		DefaultEnd:   "18:00",
		Workers:      2,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		store:    newMemStore(),
		clock:    &fakeClock{},
		uploader: &fakeUploader{},
	}
	f.at(testDate, "08:00")
	f.uc = NewUsecases(Deps{
		Repo:     f.store.repo(),
		Locker:   lock.NewKeyedMutex(),
		Uploader: f.uploader,
		Settings: testSettings(),
		Logger:   zap.NewNop(),
		Now:      f.clock.Now,
	})
	f.store.addDevice(model.Device{ID: testDevice, LocationID: "HQ", Name: "Lobby", Status: model.DeviceActive})
	f.employee = f.store.addEmployee(model.Employee{
		Code: testCode, FirstName: "Ayse", LastName: "Yilmaz", Department: "Finance", LocationID: "HQ", Active: true,
	})
	return f
}

// at moves the clock to date hh:mm in the test zone.
func (f *fixture) at(date, hhmm string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, testLoc)
	require.NoError(f.t, err)
	f.clock.Set(t)
	return t
}

func (f *fixture) challenge() string {
	f.t.Helper()
	resp, err := f.uc.Challenge.Issue(context.Background(), IssueChallengeRequest{DeviceID: testDevice})
	require.NoError(f.t, err)
	return resp.Challenge
}

// punch issues a fresh challenge and scans code at hh:mm on testDate.
func (f *fixture) punch(hhmm, code string, action attendance.PunchType) (*PunchResult, error) {
	f.t.Helper()
	f.at(testDate, hhmm)
	return f.uc.Punch.Record(context.Background(), RecordPunchRequest{
		DeviceID:     testDevice,
		Challenge:    f.challenge(),
		EmployeeCode: code,
		Action:       string(action),
	})
}

func (f *fixture) mustPunch(hhmm string, action attendance.PunchType) *PunchResult {
	f.t.Helper()
	res, err := f.punch(hhmm, testCode, action)
	require.NoError(f.t, err, "punch %s at %s", action, hhmm)
	return res
}
