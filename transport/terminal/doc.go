// Package terminal plays the Snake game locally in a terminal.
//
// A Game wraps one service.Session. The session's renderer posts every
// snapshot to the tcell event queue as an EventInterrupt, so the scheduler
// never waits on the terminal and all drawing happens on the event loop.
//
// Keys:
//   - Arrows, WASD or hjkl: steer
//   - r, Space or Enter: restart
//   - + and -: change speed by 50ms
//   - q, Esc or Ctrl-C: quit
//
// A short tone is played through gopxl/beep whenever the snake eats. When no
// audio device is available the game runs silently.
package terminal
