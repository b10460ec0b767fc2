package updater

import (
	"fmt"
	"strings"
)

const progressWidth = 40

// renderProgress formats the progress bar: filled cells of '=' when
// the total fits in the bar, scaled '#' cells otherwise. The line
// only terminates on completion.
func renderProgress(n, tot int) string {
	a, b := n, tot
	c := byte('=')
	if tot > progressWidth {
		a = n * progressWidth / tot
		b = progressWidth
		c = '#'
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < a; i++ {
		sb.WriteByte(c)
	}
	for i := a; i < b; i++ {
		sb.WriteByte(' ')
	}
	fmt.Fprintf(&sb, "] %d/%d (%3d%%) ", n, tot, n*100/tot)
	if n == tot {
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (u *Updater) progress(n, tot int) {
	if !u.showProgress || tot == 0 {
		return
	}
	fmt.Fprint(u.Out, renderProgress(n, tot))
}
