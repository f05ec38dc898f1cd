package quiz

import "testing"

func TestAnswer_Check(t *testing.T) {
	qn := Question{CorrectAnswer: "Paris"}
	tests := []struct {
		text string
		want bool
	}{
		{text: "Paris", want: true},
		{text: "paris"},
		{text: "Paris "},
		{text: ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ans := Answer{AnswerText: tt.text, IsCorrect: !tt.want}
			ans.Check(qn)
			if ans.IsCorrect != tt.want {
				t.Errorf("Check() IsCorrect = %v, want %v", ans.IsCorrect, tt.want)
			}
		})
	}
}
