package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
	"github.com/noah-isme/cams-go-api/internal/repository"
	"github.com/noah-isme/cams-go-api/pkg/excel"
)

// ReportService joins enrollment, attendance and marks into row-per-student
// course reports and spreadsheet exports.
type ReportService interface {
	BuildReport(ctx context.Context, courseID uint) (dto.CourseReportResponse, error)
	ExportXLSX(ctx context.Context, courseID uint) ([]byte, string, error)
}

type reportService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	sessions    repository.AttendanceRepository
	tests       repository.ClassTestRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, sessions repository.AttendanceRepository, tests repository.ClassTestRepository, logger zerolog.Logger) ReportService {
	return &reportService{
		courses:     courses,
		enrollments: enrollments,
		sessions:    sessions,
		tests:       tests,
		logger:      logger.With().Str("component", "report_service").Logger(),
		now:         time.Now,
	}
}

// BuildReport assembles the course report. A course with no students or no
// class tests produces an empty-but-valid report rather than an error.
func (s *reportService) BuildReport(ctx context.Context, courseID uint) (dto.CourseReportResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseReportResponse{}, ErrCourseNotFound
		}
		return dto.CourseReportResponse{}, err
	}

	ranges, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseReportResponse{}, err
	}
	roster := ExpandRanges(ranges)

	sessions, err := s.sessions.ListByCourse(ctx, courseID, "")
	if err != nil {
		return dto.CourseReportResponse{}, err
	}
	bySection := make(map[string][]models.AttendanceSession)
	for _, session := range sessions {
		bySection[session.Section] = append(bySection[session.Section], session)
	}

	published, err := s.tests.ListPublishedByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseReportResponse{}, err
	}

	allMarks, err := s.tests.ListMarksByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseReportResponse{}, err
	}
	markIndex := make(map[uint]map[int64]models.Mark)
	for _, mark := range allMarks {
		if markIndex[mark.ClassTestID] == nil {
			markIndex[mark.ClassTestID] = make(map[int64]models.Mark)
		}
		markIndex[mark.ClassTestID][mark.StudentID] = mark
	}

	rows := make([]dto.ReportRow, 0, len(roster))
	for _, student := range roster {
		held, present := presenceCounts(bySection[student.Section], student.StudentID)
		attendancePct := percentage(present, held)

		row := dto.ReportRow{
			StudentID:            student.StudentID,
			Section:              student.Section,
			AttendancePercentage: attendancePct,
			AttendanceGradeMarks: AttendanceGradeContribution(attendancePct, course.Credit),
			ClassTests:           make([]dto.ReportCTCell, 0, len(published)),
		}

		var percentages []float64
		for _, ct := range published {
			cell := dto.ReportCTCell{
				ClassTestID: ct.ID,
				Name:        ct.Name,
				TotalMarks:  ct.TotalMarks,
			}
			if mark, ok := markIndex[ct.ID][student.StudentID]; ok {
				cell.Absent = mark.Status == models.MarkStatusAbsent
				cell.Marks = mark.MarksObtained
				if pct, graded := mark.Percentage(ct.TotalMarks); graded {
					percentages = append(percentages, pct)
				}
			}
			row.ClassTests = append(row.ClassTests, cell)
		}

		row.GradedClassTestsCount = len(percentages)
		row.BestCTAveragePercent = BestKAverage(percentages, course.BestCTCount)

		rows = append(rows, row)
	}

	bestCT := "all"
	if course.BestCTCount != nil {
		bestCT = strconv.Itoa(*course.BestCTCount)
	}

	return dto.CourseReportResponse{
		Summary: dto.ReportSummary{
			CourseCode:   course.Code,
			CourseName:   course.Name,
			Credit:       course.Credit,
			BestCTCount:  bestCT,
			StudentCount: len(roster),
			SessionCount: len(sessions),
			CTCount:      len(published),
			GeneratedAt:  s.now().UTC(),
		},
		Rows: rows,
	}, nil
}

// ExportXLSX renders the report into a two-sheet workbook and returns the
// encoded bytes together with a deterministic filename.
func (s *reportService) ExportXLSX(ctx context.Context, courseID uint) ([]byte, string, error) {
	report, err := s.BuildReport(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	summarySheet := excel.SheetSpec{
		Title:  "Summary",
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Course code", report.Summary.CourseCode},
			{"Course name", report.Summary.CourseName},
			{"Credit", strconv.FormatFloat(report.Summary.Credit, 'f', -1, 64)},
			{"Best CT count", report.Summary.BestCTCount},
			{"Students", strconv.Itoa(report.Summary.StudentCount)},
			{"Sessions", strconv.Itoa(report.Summary.SessionCount)},
			{"Published class tests", strconv.Itoa(report.Summary.CTCount)},
			{"Generated at", report.Summary.GeneratedAt.Format(time.RFC3339)},
		},
	}

	header := []string{"Student ID", "Section", "Attendance %", "Attendance marks"}
	var publishedNames []string
	if len(report.Rows) > 0 {
		for _, cell := range report.Rows[0].ClassTests {
			publishedNames = append(publishedNames, fmt.Sprintf("%s (%d)", cell.Name, cell.TotalMarks))
		}
	}
	header = append(header, publishedNames...)
	header = append(header, "Best CT avg %")

	rows := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		cells := []string{
			strconv.FormatInt(row.StudentID, 10),
			row.Section,
			strconv.FormatFloat(row.AttendancePercentage, 'f', 2, 64),
			strconv.FormatFloat(row.AttendanceGradeMarks, 'f', 2, 64),
		}
		for _, cell := range row.ClassTests {
			cells = append(cells, markCell(cell))
		}
		cells = append(cells, strconv.FormatFloat(row.BestCTAveragePercent, 'f', 2, 64))
		rows = append(rows, cells)
	}

	reportSheet := excel.SheetSpec{Title: "Report", Header: header, Rows: rows}

	workbook, err := excel.BuildWorkbook([]excel.SheetSpec{summarySheet, reportSheet})
	if err != nil {
		return nil, "", err
	}

	data, err := workbook.Bytes()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s_report_%s.xlsx", report.Summary.CourseCode, s.now().Format("2006-01-02"))
	s.logger.Info().Uint("course_id", courseID).Str("file", filename).Int("rows", len(rows)).Msg("report exported")

	return data, filename, nil
}

func markCell(cell dto.ReportCTCell) string {
	if cell.Absent {
		return "absent"
	}
	if cell.Marks == nil {
		return "-"
	}
	return strconv.FormatFloat(*cell.Marks, 'f', -1, 64)
}
