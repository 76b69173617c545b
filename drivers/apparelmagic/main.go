package main

import (
	tap "github.com/datazip-inc/tap-apparel-magic"
	driver "github.com/datazip-inc/tap-apparel-magic/drivers/apparelmagic/internal"
)

func main() {
	tap.RegisterDriver(&driver.ApparelMagic{})
}
