package dto

// CourseDashboardResponse summarises one course for the teacher dashboard.
type CourseDashboardResponse struct {
	CourseID          uint                `json:"course_id"`
	CourseCode        string              `json:"course_code"`
	ClassesHeld       int                 `json:"classes_held"`
	StudentCount      int                 `json:"student_count"`
	AveragePercentage float64             `json:"average_attendance_percent"`
	UpcomingTests     []ClassTestResponse `json:"upcoming_tests"`
}

// StudentCourseSummary is one course line on the student dashboard.
type StudentCourseSummary struct {
	CourseID             uint                `json:"course_id"`
	CourseCode           string              `json:"course_code"`
	CourseName           string              `json:"course_name"`
	Section              string              `json:"section"`
	AttendancePercentage float64             `json:"attendance_percentage"`
	BestCTAveragePercent float64             `json:"best_ct_average_percent"`
	UpcomingTests        []ClassTestResponse `json:"upcoming_tests"`
}

// StudentDashboardResponse aggregates a student's standing across courses.
type StudentDashboardResponse struct {
	StudentID int64                  `json:"student_id"`
	Courses   []StudentCourseSummary `json:"courses"`
}
