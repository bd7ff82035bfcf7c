package main

// background runs fn on its own goroutine, recovering panics so a failed
// side task (welcome mail, cleanup) cannot take the process down.
func (app *application) background(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", err)
			}
		}()
		fn()
	}()
}
