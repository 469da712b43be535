package align

type crumb uint8

// Crumbs record which move produced a cell. Their declaration order is the
// tie-break order: an earlier move wins an equal score.
const (
	crumbNone crumb = iota
	crumbMatch
	crumbStutterDel
	crumbDel
	crumbStutterIns
	crumbIns
)

// matrix is the (len(a)+1) x (len(b)+1) score and traceback table.
type matrix struct {
	a, b  string
	cols  int
	score []float64
	crumb []crumb
}

func newMatrix(a, b string) *matrix {
	n := (len(a) + 1) * (len(b) + 1)
	return &matrix{
		a:     a,
		b:     b,
		cols:  len(b) + 1,
		score: make([]float64, n),
		crumb: make([]crumb, n),
	}
}

func (m *matrix) idx(i, j int) int { return i*m.cols + j }

func (m *matrix) set(i, j int, s float64, c crumb) {
	k := m.idx(i, j)
	m.score[k] = s
	m.crumb[k] = c
}

func (m *matrix) get(i, j int) float64 { return m.score[m.idx(i, j)] }

// fill computes every interior cell. weight scales the similarity and the
// single-base gap cost by the row index; unit enables stutter moves when
// positive.
func (m *matrix) fill(unit int, p Penalties, weight func(i int) float64) {
	for i := 1; i <= len(m.a); i++ {
		w := weight(i)
		for j := 1; j <= len(m.b); j++ {
			best, move := m.get(i-1, j-1)+w*similarity(m.a[i-1], m.b[j-1]), crumbMatch
			consider := func(s float64, c crumb) {
				if s > best {
					best, move = s, c
				}
			}
			if unit > 0 && unit <= i {
				consider(m.get(i-unit, j)+p.Stutter, crumbStutterDel)
			}
			consider(m.get(i-1, j)+w*p.Gap, crumbDel)
			if unit > 0 && unit <= j {
				consider(m.get(i, j-unit)+p.Stutter, crumbStutterIns)
			}
			consider(m.get(i, j-1)+w*p.Gap, crumbIns)
			m.set(i, j, best, move)
		}
	}
}

// traceback follows the crumbs from (i, j) back to the origin and returns the
// aligned pairs in order.
func (m *matrix) traceback(i, j, unit int) []Pair {
	var rev []Pair
	for {
		switch m.crumb[m.idx(i, j)] {
		case crumbMatch:
			rev = append(rev, Pair{m.a[i-1], m.b[j-1]})
			i--
			j--
		case crumbDel:
			rev = append(rev, Pair{m.a[i-1], Gap})
			i--
		case crumbStutterDel:
			for k := 0; k < unit; k++ {
				rev = append(rev, Pair{m.a[i-1], Gap})
				i--
			}
		case crumbIns:
			rev = append(rev, Pair{Gap, m.b[j-1]})
			j--
		case crumbStutterIns:
			for k := 0; k < unit; k++ {
				rev = append(rev, Pair{Gap, m.b[j-1]})
				j--
			}
		default:
			pairs := make([]Pair, len(rev))
			for k, p := range rev {
				pairs[len(rev)-1-k] = p
			}
			return pairs
		}
	}
}

func unitWeight(int) float64 { return 1 }
