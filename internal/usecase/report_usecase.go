package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/attendance"
	"pdks-backend/internal/model"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	maxReportDays = 366
)

type Report struct {
	Filename    string
	ContentType string
	Body        []byte
}

type ReportUsecase interface {
	// Sessions exports sessions with from <= date <= to.
	Sessions(ctx context.Context, from, to, format string) (*Report, error)
	// Punches exports the raw punch ledger of the range as CSV.
	Punches(ctx context.Context, from, to string) (*Report, error)
	// Dashboard summarizes one work date, today when date is empty.
	Dashboard(ctx context.Context, date string) (*DashboardStats, error)
}

type DashboardStats struct {
	Date            string           `json:"date"`
	Holiday         bool             `json:"holiday"`
	TotalEmployees  int64            `json:"total_employees"`
	ActiveEmployees int64            `json:"active_employees"`
	Present         int64            `json:"present"`
	Absent          int64            `json:"absent"`
	Status          map[string]int64 `json:"status"`
	Late            int64            `json:"late"`
	EarlyLeave      int64            `json:"early_leave"`
	Punches         int64            `json:"punches"`
	WorkedMinutes   int64            `json:"worked_minutes"`
}

type reportUsecase struct {
	Deps
}

func NewReportUsecase(d Deps) ReportUsecase {
	return &reportUsecase{Deps: d}
}

var sessionHeader = []string{
	"date", "employee_code", "employee", "department", "status", "in", "out",
	"total_minutes", "late_minutes", "early_leave_minutes", "break_minutes", "finalized",
}

// sessionNumericCols are the minute columns, written as numbers.
var sessionNumericCols = map[int]bool{7: true, 8: true, 9: true, 10: true}

var punchHeader = []string{"date", "employee", "department", "action", "time", "location", "source"}

func (u *reportUsecase) Sessions(ctx context.Context, from, to, format string) (*Report, error) {
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, apperror.Invalid("format must be csv or xlsx")
	}
	if _, _, err := u.checkRange(from, to); err != nil {
		return nil, err
	}

	sessions, err := u.Repo.Session.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	employees, err := u.employeesOf(ctx, sessionEmployeeIDs(sessions))
	if err != nil {
		return nil, apperror.InternalErr(err)
	}

	loc := u.location()
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		e := employees[s.EmployeeID]
		rows = append(rows, []string{
			s.Date,
			e.Code,
			e.FullName(),
			e.Department,
			s.CurrentStatus,
			clock(s.InTS, loc),
			clock(s.OutTS, loc),
			strconv.Itoa(s.TotalMinutes),
			strconv.Itoa(s.LateMinutes),
			strconv.Itoa(s.EarlyLeaveMinutes),
			strconv.Itoa(s.BreakMinutes),
			strconv.FormatBool(s.Finalized),
		})
	}

	name := fmt.Sprintf("sessions_%s_%s", from, to)
	if format == FormatCSV {
		body, err := writeCSV(sessionHeader, rows)
		if err != nil {
			return nil, apperror.InternalErr(err)
		}
		return &Report{Filename: name + ".csv", ContentType: "text/csv", Body: body}, nil
	}

	body, err := writeXLSX("Sessions", sessionHeader, rows, sessionNumericCols)
	if err != nil {
		u.Logger.Error("build sessions workbook failed", zap.Error(err))
		return nil, apperror.InternalErr(err)
	}
	return &Report{
		Filename:    name + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        body,
	}, nil
}

func (u *reportUsecase) Punches(ctx context.Context, from, to string) (*Report, error) {
	start, end, err := u.checkRange(from, to)
	if err != nil {
		return nil, err
	}

	punches, err := u.Repo.Punch.ListBetween(ctx, start, end)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	ids := make([]uint, 0, len(punches))
	for _, p := range punches {
		ids = append(ids, p.EmployeeID)
	}
	employees, err := u.employeesOf(ctx, ids)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	locations, err := u.Repo.Location.List(ctx)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	locationNames := make(map[string]string, len(locations))
	for _, l := range locations {
		locationNames[l.ID] = l.Name
	}

	loc := u.location()
	rows := make([][]string, 0, len(punches))
	for _, p := range punches {
		e := employees[p.EmployeeID]
		at := p.Timestamp.In(loc)
		location := locationNames[p.LocationID]
		if location == "" {
			location = p.LocationID
		}
		rows = append(rows, []string{
			at.Format(attendance.DateLayout),
			e.FullName(),
			e.Department,
			p.Type,
			at.Format("15:04:05"),
			location,
			p.Source,
		})
	}

	body, err := writeCSV(punchHeader, rows)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return &Report{Filename: fmt.Sprintf("punches_%s_%s.csv", from, to), ContentType: "text/csv", Body: body}, nil
}

func (u *reportUsecase) Dashboard(ctx context.Context, date string) (*DashboardStats, error) {
	loc := u.location()
	if date == "" {
		date = attendance.DateOf(u.now(), loc)
	}
	from, to, err := attendance.DayBounds(date, loc)
	if err != nil {
		return nil, apperror.Invalid(err.Error())
	}

	counts, err := u.Repo.Dashboard.DayCounts(ctx, date, from, to)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	holiday, err := u.Repo.Holiday.IsHoliday(ctx, date)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}

	stats := &DashboardStats{
		Date:            date,
		Holiday:         holiday,
		TotalEmployees:  counts.Employees,
		ActiveEmployees: counts.ActiveEmployees,
		Status:          counts.ByStatus,
		Late:            counts.Late,
		EarlyLeave:      counts.EarlyLeave,
		Punches:         counts.Punches,
		WorkedMinutes:   counts.WorkedMinutes,
	}
	for _, n := range counts.ByStatus {
		stats.Present += n
	}
	// nobody is absent on a holiday
	if !holiday && stats.ActiveEmployees > stats.Present {
		stats.Absent = stats.ActiveEmployees - stats.Present
	}
	return stats, nil
}

// checkRange validates [from, to] and returns its absolute bounds.
func (u *reportUsecase) checkRange(from, to string) (time.Time, time.Time, error) {
	loc := u.location()
	start, _, err := attendance.DayBounds(from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Invalid("from: " + err.Error())
	}
	_, end, err := attendance.DayBounds(to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperror.Invalid("to: " + err.Error())
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperror.Invalid("from must not be after to")
	}
	if end.Sub(start) > maxReportDays*24*time.Hour+time.Hour {
		return time.Time{}, time.Time{}, apperror.Invalid(fmt.Sprintf("range is limited to %d days", maxReportDays))
	}
	return start, end, nil
}

func (u *reportUsecase) employeesOf(ctx context.Context, ids []uint) (map[uint]model.Employee, error) {
	seen := make(map[uint]bool, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	list, err := u.Repo.Employee.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]model.Employee, len(list))
	for _, e := range list {
		out[e.ID] = e
	}
	return out, nil
}

func sessionEmployeeIDs(sessions []model.Session) []uint {
	ids := make([]uint, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.EmployeeID)
	}
	return ids
}

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(attendance.ClockLayout)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(sheet string, header []string, rows [][]string, numeric map[int]bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	f.SetCellStyle(sheet, "A1", last, headerStyle)

	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if n, err := strconv.Atoi(value); err == nil && numeric[c] {
				f.SetCellValue(sheet, cell, n)
			} else {
				f.SetCellValue(sheet, cell, value)
			}
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	f.SetColWidth(sheet, "A", lastCol, 16)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
