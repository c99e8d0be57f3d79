package datagen

import "sync"

var rowPool = struct {
	sync.Mutex
	pools map[int]*sync.Pool
}{pools: make(map[int]*sync.Pool)}

// borrowRows returns m row headers.
func borrowRows(m int) [][]float32 {
	rowPool.Lock()
	p, ok := rowPool.pools[m]
	rowPool.Unlock()
	if ok {
		if rows, ok := p.Get().([][]float32); ok {
			return rows
		}
	}
	return make([][]float32, m)
}

func returnRows(rows [][]float32) {
	m := cap(rows)
	rows = rows[:m]
	for i := range rows {
		rows[i] = nil
	}

	rowPool.Lock()
	p, ok := rowPool.pools[m]
	if !ok {
		p = new(sync.Pool)
		rowPool.pools[m] = p
	}
	rowPool.Unlock()
	p.Put(rows)
}

// viewRows points the first len(rows) headers at consecutive rows of n values of data.
func viewRows(rows [][]float32, data []float32, n int) [][]float32 {
	for i := range rows {
		start := i * n
		rows[i] = data[start : start+n : start+n]
	}
	return rows
}
