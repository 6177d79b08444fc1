package school

import "testing"

func TestResult_Finalize(t *testing.T) {
	tests := []struct {
		name      string
		ca        [4]float64
		exam      float64
		wantMarks float64
		wantGrade string
	}{
		{name: "A+", ca: [4]float64{10, 10, 10, 10}, exam: 55, wantMarks: 95, wantGrade: "A+"},
		{name: "A lower bound", ca: [4]float64{10, 10, 10, 10}, exam: 40, wantMarks: 80, wantGrade: "A"},
		{name: "B+", ca: [4]float64{8, 7, 9, 6}, exam: 45, wantMarks: 75, wantGrade: "B+"},
		{name: "B", ca: [4]float64{5, 5, 5, 5}, exam: 40, wantMarks: 60, wantGrade: "B"},
		{name: "C+", ca: [4]float64{5, 5, 5, 5}, exam: 30, wantMarks: 50, wantGrade: "C+"},
		{name: "C", ca: [4]float64{5, 5, 5, 5}, exam: 20, wantMarks: 40, wantGrade: "C"},
		{name: "D", ca: [4]float64{5, 5, 5, 5}, exam: 10, wantMarks: 30, wantGrade: "D"},
		{name: "F", ca: [4]float64{2, 2, 2, 2}, exam: 10, wantMarks: 18, wantGrade: "F"},
		{name: "zero scores", wantMarks: 0, wantGrade: "F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Result{
				CA1Score:  tt.ca[0],
				CA2Score:  tt.ca[1],
				CA3Score:  tt.ca[2],
				CA4Score:  tt.ca[3],
				ExamScore: tt.exam,
			}
			res.Finalize()
			if res.MarksObtained != tt.wantMarks {
				t.Errorf("MarksObtained = %v, want %v", res.MarksObtained, tt.wantMarks)
			}
			if res.TotalMarks != 100 {
				t.Errorf("TotalMarks = %v, want 100", res.TotalMarks)
			}
			if res.Grade != tt.wantGrade {
				t.Errorf("Grade = %q, want %q", res.Grade, tt.wantGrade)
			}
		})
	}
}

func TestResource_Retained(t *testing.T) {
	retained := []Resource{ResourceResult, ResourceAttendance, ResourceFeePayment}
	for _, res := range retained {
		if !res.Retained() {
			t.Errorf("%s must be retained", res)
		}
	}
	for _, res := range []Resource{ResourceStudent, ResourceClass, ResourceAnnouncement} {
		if res.Retained() {
			t.Errorf("%s must not be retained", res)
		}
	}
}
