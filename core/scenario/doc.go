// Package scenario builds probability-weighted price scenarios from a base
// forecast. Perturbations are drawn from an explicitly seeded source so runs
// can be reproduced.
package scenario
