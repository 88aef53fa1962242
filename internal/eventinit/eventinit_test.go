package eventinit

import (
	"testing"
	"time"

	"github.com/iliyamo/seatgrid/internal/bookerr"
)

func TestRequestValidate(t *testing.T) {
	date := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{
			name:    "valid request",
			req:     Request{Name: "Opening Night", OwnerID: "owner-1", Date: date, Rows: 2, Cols: 3},
			wantErr: false,
		},
		{
			name:    "missing name",
			req:     Request{OwnerID: "owner-1", Date: date, Rows: 1, Cols: 1},
			wantErr: true,
		},
		{
			name:    "zero rows",
			req:     Request{Name: "Opening Night", Date: date, Rows: 0, Cols: 1},
			wantErr: true,
		},
		{
			name:    "negative cols",
			req:     Request{Name: "Opening Night", Date: date, Rows: 1, Cols: -1},
			wantErr: true,
		},
		{
			name:    "single seat grid",
			req:     Request{Name: "Opening Night", Date: date, Rows: 1, Cols: 1},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			if tt.wantErr {
				be, ok := bookerr.As(err)
				if !ok || be.Code != bookerr.CodeInvalid {
					t.Fatalf("expected INVALID error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
