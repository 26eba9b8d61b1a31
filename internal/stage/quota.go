package stage

import "strconv"

// Quota caps how many successful outcomes a stage keeps.
// The zero value is unbounded.
type Quota struct {
	limit int
}

// Unbounded keeps every success.
func Unbounded() Quota {
	return Quota{}
}

// Limited keeps the first n successes. It panics if n < 1.
func Limited(n int) Quota {
	if n < 1 {
		panic("stage: quota limit must be positive, got " + strconv.Itoa(n))
	}
	return Quota{limit: n}
}

// QuotaFromLimit interprets a configured limit: zero or negative means unbounded.
func QuotaFromLimit(n int) Quota {
	if n <= 0 {
		return Unbounded()
	}
	return Limited(n)
}

// Limit returns the cap and whether one is set.
func (q Quota) Limit() (int, bool) {
	return q.limit, q.limit > 0
}

// Reached reports whether count successes satisfy the quota.
func (q Quota) Reached(count int) bool {
	return q.limit > 0 && count >= q.limit
}

func (q Quota) String() string {
	if q.limit == 0 {
		return "unbounded"
	}
	return "limited(" + strconv.Itoa(q.limit) + ")"
}
