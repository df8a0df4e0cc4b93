// Package farmbot drives a FarmBot device. Commands travel as frames over
// the device broker; configuration is read and written through the web API.
//
// Farmbot aggregates the components into one method surface:
//
//	bot := farmbot.New(api, brokerClient, session)
//	if err := bot.Move(ctx, 10, 20, 5); err != nil {
//		return err
//	}
//	pos, err := bot.GetXYZ(ctx)
package farmbot
