package datasets

// MinMax scales every column to [0, 1].
type MinMax struct {
	Min, Max []float64
}

// minMaxEps guards constant columns.
const minMaxEps = 1e-7

// Fit learns the column ranges of rows.
func (m *MinMax) Fit(rows [][]float64) {
	m.Min, m.Max = nil, nil
	if len(rows) == 0 {
		return
	}
	m.Min = append([]float64(nil), rows[0]...)
	m.Max = append([]float64(nil), rows[0]...)
	for _, row := range rows[1:] {
		for k, v := range row {
			if v < m.Min[k] {
				m.Min[k] = v
			}
			if v > m.Max[k] {
				m.Max[k] = v
			}
		}
	}
}

// Transform scales rows in place.
func (m *MinMax) Transform(rows [][]float64) {
	for _, row := range rows {
		for k := range row {
			row[k] = (row[k] - m.Min[k]) / (m.Max[k] - m.Min[k] + minMaxEps)
		}
	}
}

// Inverse undoes Transform in place.
func (m *MinMax) Inverse(rows [][]float64) {
	for _, row := range rows {
		for k := range row {
			row[k] = row[k]*(m.Max[k]-m.Min[k]+minMaxEps) + m.Min[k]
		}
	}
}
