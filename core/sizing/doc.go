// Package sizing searches the battery power and capacity that maximize the
// return on investment of a peak-shaving duty cycle.
//
// Every (power, capacity) pair of the search grid is simulated over the load
// profile against monthly grid limits. A candidate is feasible when it
// lowers the peak of every month without exceeding that month's limit.
package sizing
