package model

import "time"

type observers []Observer

// Observers combines several observers into one.
func Observers(obs ...Observer) Observer {
	return observers(obs)
}

func (o observers) ModelRegistered(id string) {
	for _, ob := range o {
		ob.ModelRegistered(id)
	}
}

func (o observers) ActiveModelChanged(id string) {
	for _, ob := range o {
		ob.ActiveModelChanged(id)
	}
}

func (o observers) ModelReloaded(id string, err error, elapsed time.Duration) {
	for _, ob := range o {
		ob.ModelReloaded(id, err, elapsed)
	}
}
