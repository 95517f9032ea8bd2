package indicator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
)

// Display texts. The board has a four character seven-segment display.
const (
	TextEmpty = "frEE"
	TextDone  = "donE"
)

// Frame is the complete output state of the board.
type Frame struct {
	Red    bool   `json:"red"`
	Yellow bool   `json:"yellow"`
	Green  bool   `json:"green"`
	Buzzer bool   `json:"buzzer"`
	Text   string `json:"text"`
}

// EmptyFrame is shown while the oven is free.
func EmptyFrame() Frame { return Frame{Red: true, Text: TextEmpty} }

// CookingFrame is shown each tick of a cooking session.
func CookingFrame(remaining int) Frame { return Frame{Yellow: true, Text: strconv.Itoa(remaining)} }

// DoneFrame is shown when a cooking session completes.
func DoneFrame() Frame { return Frame{Green: true, Buzzer: true, Text: TextDone} }

// Controller applies frames to a Device on its own goroutine.
//
// Show* calls never block: a frame that has not been written yet is replaced by
// a newer one, since every frame carries the full board state. Device failures
// are logged and dropped.
type Controller struct {
	device Device
	logger *slog.Logger

	mu      sync.Mutex
	pending *Frame
	current Frame
	wake    chan struct{}
	idle    *sync.Cond
	busy    bool
	closed  bool

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewController creates a Controller and switches every output off.
func NewController(device Device, logger *slog.Logger) *Controller {
	c := &Controller{
		device:  device,
		logger:  logger.With("component", "indicator"),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	c.idle = sync.NewCond(&c.mu)
	// The board is switched off before anything else can be shown.
	c.apply(Frame{})
	go c.loop()
	return c
}

func (c *Controller) ShowEmpty() { c.show(EmptyFrame()) }

func (c *Controller) ShowCooking(remaining int) { c.show(CookingFrame(remaining)) }

func (c *Controller) ShowDone() { c.show(DoneFrame()) }

// Current returns the last frame written to the device.
func (c *Controller) Current() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Flush waits until every queued frame has been written or ctx is done.
func (c *Controller) Flush(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.idle.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for (c.pending != nil || c.busy) && !c.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.idle.Wait()
	}
	return nil
}

// Close writes any pending frame and stops the controller.
func (c *Controller) Close() {
	c.once.Do(func() {
		close(c.done)
		<-c.stopped
		c.mu.Lock()
		c.closed = true
		c.idle.Broadcast()
		c.mu.Unlock()
	})
}

func (c *Controller) show(f Frame) {
	c.mu.Lock()
	c.pending = &f
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) loop() {
	defer close(c.stopped)
	for {
		select {
		case <-c.wake:
			c.drain()
		case <-c.done:
			c.drain()
			return
		}
	}
}

func (c *Controller) drain() {
	for {
		c.mu.Lock()
		f := c.pending
		c.pending = nil
		if f == nil {
			c.busy = false
			c.idle.Broadcast()
			c.mu.Unlock()
			return
		}
		c.busy = true
		c.mu.Unlock()

		c.apply(*f)

		c.mu.Lock()
		c.current = *f
		c.mu.Unlock()
	}
}

func (c *Controller) apply(f Frame) {
	var errList []error
	lights := map[Light]bool{LightRed: f.Red, LightYellow: f.Yellow, LightGreen: f.Green}
	for _, l := range Lights {
		if err := c.device.SetLight(l, lights[l]); err != nil {
			errList = append(errList, &DeviceError{Op: "set " + l.String() + " light", Err: err})
		}
	}
	if err := c.device.SetBuzzer(f.Buzzer); err != nil {
		errList = append(errList, &DeviceError{Op: "set buzzer", Err: err})
	}
	if err := c.device.Display(f.Text); err != nil {
		errList = append(errList, &DeviceError{Op: "display", Err: err})
	}
	if len(errList) > 0 {
		c.logger.Warn("indicator update failed", "text", f.Text, "error", errors.Join(errList...))
	}
}
