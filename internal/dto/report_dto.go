package dto

import "time"

// ReportCTCell holds one student's result for one published class test.
// Marks is nil for ungraded entries; Absent is true when the student missed
// the test.
type ReportCTCell struct {
	ClassTestID uint     `json:"class_test_id"`
	Name        string   `json:"name"`
	TotalMarks  int      `json:"total_marks"`
	Marks       *float64 `json:"marks,omitempty"`
	Absent      bool     `json:"absent"`
}

// ReportRow is one student's line in the course report.
type ReportRow struct {
	StudentID             int64          `json:"student_id"`
	Section               string         `json:"section"`
	AttendancePercentage  float64        `json:"attendance_percentage"`
	AttendanceGradeMarks  float64        `json:"attendance_grade_marks"`
	ClassTests            []ReportCTCell `json:"class_tests"`
	BestCTAveragePercent  float64        `json:"best_ct_average_percent"`
	GradedClassTestsCount int            `json:"graded_class_tests_count"`
}

// ReportSummary carries the course-info block accompanying the report table.
type ReportSummary struct {
	CourseCode   string    `json:"course_code"`
	CourseName   string    `json:"course_name"`
	Credit       float64   `json:"credit"`
	BestCTCount  string    `json:"best_ct_count"`
	StudentCount int       `json:"student_count"`
	SessionCount int       `json:"session_count"`
	CTCount      int       `json:"ct_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// CourseReportResponse is the full report payload. An empty course yields an
// empty-but-valid report, never an error.
type CourseReportResponse struct {
	Summary ReportSummary `json:"summary"`
	Rows    []ReportRow   `json:"rows"`
}
