//go:build !linux

package gpio

import "errors"

type CharDev struct{}

func OpenCharDev(chipName string) (*CharDev, error) {
	return nil, errors.New("gpio character device is only available on linux")
}

func (c *CharDev) Drive(pin int, high bool) error {
	return errors.New("gpio character device is only available on linux")
}

func (c *CharDev) Close() error {
	return nil
}
