package gait

type controlPoints struct {
	x, y []float64
}

type jointControlPoints struct {
	hip, knee, ankle, thorax, elbow controlPoints
}

// controlPointsFor returns the joint flexion control points of the Boulic
// model, in degrees over one cycle. Fast walking interpolates linearly from
// rv 1.3 to rv 3, normal walking elbow values from rv 0.5 to 1.3.
func controlPointsFor(style Style, rv, support float64) jointControlPoints {
	fast := (rv - 1.3) / 1.7
	normal := (rv - 0.5) / 0.8

	var p jointControlPoints

	p.thorax = controlPoints{
		x: []float64{0.1, 0.4, 0.6, 0.9},
		y: []float64{4.0 / 3 * rv, -4.5 / 3 * rv, -4.0 / 3 * rv, 4.5 / 3 * rv},
	}

	switch style {
	case StyleSlow:
		p.hip = controlPoints{
			x: []float64{-0.1, 0.5, 0.9},
			y: []float64{50 * rv, -30 * rv, 50 * rv},
		}
		p.knee = controlPoints{
			x: []float64{0.17, 0.4, 0.75, 1},
			y: []float64{3, 3, 140 * rv, 3},
		}
		p.ankle = controlPoints{
			x: []float64{0, 0.08, 0.5, support, 0.85},
			y: []float64{-3, -30*rv - 3, 22*rv - 3, -34*rv - 3, -3},
		}
		p.elbow = controlPoints{
			x: []float64{0.05, 0.5, 0.9},
			y: []float64{6*rv + 3, 34*rv + 3, 10*rv + 3},
		}

	case StyleNormal:
		p.hip = controlPoints{
			x: []float64{-0.1, 0.5, 0.9},
			y: []float64{25, -15, 25},
		}
		p.knee = controlPoints{
			x: []float64{0.17, 0.4, 0.75, 1},
			y: []float64{3, 3, 70, 3},
		}
		p.ankle = controlPoints{
			x: []float64{0, 0.08, 0.5, support, 0.85},
			y: []float64{-3, -18, 8, -20, -3},
		}
		p.elbow = controlPoints{
			x: []float64{0.05, 0.01*normal + 0.5, 0.9},
			y: []float64{8*normal + 6, 24*normal + 20, 9*normal + 8},
		}

	default:
		p.hip = controlPoints{
			x: []float64{0.2*fast - 0.1, 0.5, 0.9},
			y: []float64{5*fast + 25, -15, 6*fast + 25},
		}
		p.knee = controlPoints{
			x: []float64{-0.05*fast + 0.17, 0.4, -0.05*fast + 0.75, -0.03*fast + 1},
			y: []float64{22*fast + 3, 3, -5*fast + 70, 3*fast + 3},
		}
		p.ankle = controlPoints{
			x: []float64{0, 0.08, -0.1*fast + 0.5, support, 0.85},
			y: []float64{5*fast - 3, 4*fast - 18, -3*fast + 8, -8*fast - 20, 5*fast - 3},
		}
		p.elbow = controlPoints{
			x: []float64{0.05, 0.04*fast + 0.51, -0.1*fast + 0.9},
			y: []float64{-6*fast + 14, 26*fast + 44, -6*fast + 17},
		}
	}

	return p
}
