package main

import "github.com/killallgit/delivery-api/cmd"

// @title           Video Delivery API
// @version         1.0.0
// @description     Batch transcription and delivery for Douyin, Bilibili and local videos
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/delivery-api
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}
