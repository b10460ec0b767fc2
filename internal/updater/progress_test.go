package updater

import "testing"

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name string
		n    int
		tot  int
		want string
	}{
		{
			name: "start",
			n:    0,
			tot:  1,
			want: "[ ] 0/1 (  0%) ",
		},
		{
			name: "complete ends the line",
			n:    1,
			tot:  1,
			want: "[=] 1/1 (100%) \n",
		},
		{
			name: "half of four",
			n:    2,
			tot:  4,
			want: "[==  ] 2/4 ( 50%) ",
		},
		{
			name: "scaled past bar width",
			n:    20,
			tot:  80,
			want: "[##########                              ] 20/80 ( 25%) ",
		},
		{
			name: "scaled complete",
			n:    80,
			tot:  80,
			want: "[########################################] 80/80 (100%) \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderProgress(tt.n, tt.tot); got != tt.want {
				t.Errorf("renderProgress(%d, %d) = %q, want %q", tt.n, tt.tot, got, tt.want)
			}
		})
	}
}
