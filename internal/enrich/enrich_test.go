package enrich

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		doc       map[string]any
		wantCount int
		wantSum   float64
		wantAvg   float64
		nilAvg    bool
	}{
		{
			name: "mixed numeric types",
			doc: map[string]any{
				"gen_26": 2,
				"gen_27": 4.5,
				"gen_28": int64(3),
				"gen_29": int32(1),
			},
			wantCount: 4,
			wantSum:   10.5,
			wantAvg:   2.625,
		},
		{
			name: "numeric strings count",
			doc: map[string]any{
				"gen_26": "2",
				"gen_27": "3.5",
			},
			wantCount: 2,
			wantSum:   5.5,
			wantAvg:   2.75,
		},
		{
			name: "non numeric values skipped",
			doc: map[string]any{
				"gen_26": "n/a",
				"gen_27": "",
				"gen_28": "  ",
				"gen_29": true,
				"gen_30": nil,
				"gen_31": 7,
			},
			wantCount: 1,
			wantSum:   7,
			wantAvg:   7,
		},
		{
			name: "other fields ignored",
			doc: map[string]any{
				"col1":    100,
				"country": "Japan",
				"gen_26":  1,
			},
			wantCount: 1,
			wantSum:   1,
			wantAvg:   1,
		},
		{
			name:      "no numeric entries yields null average",
			doc:       map[string]any{"gen_26": "word", "note": 5},
			wantCount: 0,
			wantSum:   0,
			nilAvg:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.doc)

			if s.Count != tt.wantCount {
				t.Fatalf("Count = %d, want %d", s.Count, tt.wantCount)
			}
			if math.Abs(s.Sum-tt.wantSum) > 1e-9 {
				t.Fatalf("Sum = %v, want %v", s.Sum, tt.wantSum)
			}
			if tt.nilAvg {
				if s.Avg != nil {
					t.Fatalf("Avg = %v, want nil", *s.Avg)
				}
				return
			}
			if s.Avg == nil {
				t.Fatal("Avg is nil")
			}
			if math.Abs(*s.Avg-tt.wantAvg) > 1e-9 {
				t.Fatalf("Avg = %v, want %v", *s.Avg, tt.wantAvg)
			}
		})
	}
}
