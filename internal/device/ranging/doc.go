// Package ranging drives an HC-SR04 style ultrasonic sensor through a trigger
// pin and an echo pin.
//
// Every Measure call is self-contained: it pulses the trigger, then polls the
// echo pin until it rises and falls again. Both waits share one deadline, so a
// disconnected sensor costs at most the timeout and yields an invalid result.
package ranging
