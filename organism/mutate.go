package organism

import "math/rand"

// NewBoneReach bounds each axis of the offset between a new joint and the
// joint it grows from.
const NewBoneReach = 40

// MinSpan is the shortest distance allowed between the two joints of a new
// bone or muscle.
const MinSpan = 1

// growAttempts caps the offset draws AddBone makes before giving up.
const growAttempts = 16

// Mutate applies one generation of variation, in order: genome, brain
// weights, joint positions, bone topology, muscle topology. Joint positions
// are kept inside bounds. Every exit leaves the blueprint valid.
func (bp *Blueprint) Mutate(rng *rand.Rand, bounds Bounds) {
	g := &bp.Genome
	g.Mutate(rng)

	bp.Brain.Learn(rng, g.LearningRate.Value, g.LearningFactor.Value)

	rate, factor := g.JointMutateRate.Value, g.JointMutateFactor.Value
	for i, p := range bp.Joints {
		if rng.Float32() < rate {
			offset := V2(uniform(rng, factor), uniform(rng, factor))
			bp.Joints[i] = bounds.Clamp(p.Add(offset))
		}
	}

	if rng.Float32() < g.BoneMutateRate.Value {
		if rng.Intn(2) == 0 {
			bp.AddBone(rng, bounds)
		} else {
			bp.RemoveBone(rng)
		}
	}

	if rng.Float32() < g.MuscleMutateRate.Value {
		if rng.Intn(2) == 0 {
			bp.AddMuscle(rng)
		} else {
			bp.RemoveMuscle(rng)
		}
	}
}

// AddBone grows a new joint near a random existing joint and links the two.
// The new joint lies inside bounds and at least MinSpan from its source.
// Reports false when there is no joint to grow from or no such position
// was found.
func (bp *Blueprint) AddBone(rng *rand.Rand, bounds Bounds) bool {
	if len(bp.Joints) == 0 {
		return false
	}
	from := rng.Intn(len(bp.Joints))

	pos, ok := growJoint(rng, bp.Joints[from], bounds)
	if !ok {
		return false
	}
	bp.Joints = append(bp.Joints, pos)
	bp.Bones = append(bp.Bones, [2]int{from, len(bp.Joints) - 1})
	return true
}

// growJoint draws a clamped position near src. An offset that clamping
// folds back onto src, as at a bounds edge or corner, is tried mirrored
// before a fresh one is drawn.
func growJoint(rng *rand.Rand, src Vec2, bounds Bounds) (Vec2, bool) {
	for i := 0; i < growAttempts; i++ {
		offset := V2(uniform(rng, NewBoneReach), uniform(rng, NewBoneReach))
		for _, p := range [2]Vec2{src.Add(offset), src.Sub(offset)} {
			if q := bounds.Clamp(p); q.Sub(src).Len() >= MinSpan {
				return q, true
			}
		}
	}
	return Vec2{}, false
}

// RemoveBone removes a random bone that shares no joint with any muscle.
// It is a no-op, reporting false, when every bone is muscle-anchored.
// Joints the removed bone leaves unreferenced are dropped.
func (bp *Blueprint) RemoveBone(rng *rand.Rand) bool {
	anchored := make(map[int]bool, 2*len(bp.Muscles))
	for _, m := range bp.Muscles {
		anchored[m[0]] = true
		anchored[m[1]] = true
	}

	var candidates []int
	for i, b := range bp.Bones {
		if !anchored[b[0]] && !anchored[b[1]] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	idx := candidates[rng.Intn(len(candidates))]
	removed := bp.Bones[idx]
	bp.Bones = append(bp.Bones[:idx:idx], bp.Bones[idx+1:]...)

	// Drop the higher index first so the lower one stays valid.
	a, b := removed[0], removed[1]
	if a < b {
		a, b = b, a
	}
	for _, j := range []int{a, b} {
		if len(bp.Joints) > 2 && !bp.referenced(j) {
			bp.dropJoint(j)
		}
	}
	return true
}

// AddMuscle links a random pair of joints at least MinSpan apart with a
// new muscle and grows the brain to match. Reports false when no such pair
// exists.
func (bp *Blueprint) AddMuscle(rng *rand.Rand) bool {
	var pairs [][2]int
	for a, pa := range bp.Joints {
		for b, pb := range bp.Joints {
			if a != b && pb.Sub(pa).Len() >= MinSpan {
				pairs = append(pairs, [2]int{a, b})
			}
		}
	}
	if len(pairs) == 0 {
		return false
	}
	bp.Muscles = append(bp.Muscles, pairs[rng.Intn(len(pairs))])
	bp.Brain.AddIO()
	return true
}

// RemoveMuscle removes a random muscle and its brain inputs and output.
// Reports false when there is no muscle.
func (bp *Blueprint) RemoveMuscle(rng *rand.Rand) bool {
	if len(bp.Muscles) == 0 {
		return false
	}
	i := rng.Intn(len(bp.Muscles))
	bp.Muscles = append(bp.Muscles[:i:i], bp.Muscles[i+1:]...)
	bp.Brain.RemoveIO(i)
	return true
}

func (bp *Blueprint) referenced(j int) bool {
	for _, b := range bp.Bones {
		if b[0] == j || b[1] == j {
			return true
		}
	}
	for _, m := range bp.Muscles {
		if m[0] == j || m[1] == j {
			return true
		}
	}
	return false
}

// dropJoint removes joint j and shifts every higher index down by one.
// j must not be referenced.
func (bp *Blueprint) dropJoint(j int) {
	bp.Joints = append(bp.Joints[:j:j], bp.Joints[j+1:]...)
	shift := func(pairs [][2]int) {
		for i := range pairs {
			for k := range pairs[i] {
				if pairs[i][k] > j {
					pairs[i][k]--
				}
			}
		}
	}
	shift(bp.Bones)
	shift(bp.Muscles)
}

// uniform draws from U[-f, f].
func uniform(rng *rand.Rand, f float32) float32 {
	return (rng.Float32()*2 - 1) * f
}
