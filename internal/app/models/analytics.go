package models

// ProgressBucket groups enrollments by how far along they are
type ProgressBucket string

const (
	BucketNotStarted     ProgressBucket = "NOT_STARTED"     // 0
	BucketJustStarted    ProgressBucket = "JUST_STARTED"    // (0, 25]
	BucketInProgress     ProgressBucket = "IN_PROGRESS"     // (25, 75]
	BucketAlmostComplete ProgressBucket = "ALMOST_COMPLETE" // (75, 100)
	BucketCompleted      ProgressBucket = "COMPLETED"       // 100
)

// ProgressBuckets lists the buckets in display order
var ProgressBuckets = []ProgressBucket{
	BucketNotStarted,
	BucketJustStarted,
	BucketInProgress,
	BucketAlmostComplete,
	BucketCompleted,
}

// BucketFor returns the bucket a progress percentage falls in
func BucketFor(progress float64) ProgressBucket {
	switch {
	case progress <= 0:
		return BucketNotStarted
	case progress <= 25:
		return BucketJustStarted
	case progress <= 75:
		return BucketInProgress
	case progress < 100:
		return BucketAlmostComplete
	default:
		return BucketCompleted
	}
}

// EnrollmentSummary aggregates the whole ledger
type EnrollmentSummary struct {
	TotalEnrollments int64
	DistinctStudents int64
	CompletedModules int64
	// Sum of current module counts over every enrollment's course
	AvailableModules int64
	Buckets          map[ProgressBucket]int64
}

// CourseEnrollmentCount is the number of enrollments for one course
type CourseEnrollmentCount struct {
	CourseID    string `json:"courseId"`
	Title       string `json:"title"`
	Enrollments int64  `json:"enrollments"`
}
