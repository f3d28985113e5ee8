package gmaps

// StartURL is the map view the search starts from.
const StartURL = "https://www.google.com/maps/@32.9817464,70.1930781,3.67z?"

// CSS selectors used across the scraper.
const (
	SearchBoxSelector   = `input#searchboxinput`
	ListingLinkSelector = `a[href^="https://www.google.com/maps/place"]`

	// Detail pane
	NameSelector          = `div.TIHn2 h1.DUwDvf`
	AddressSelector       = `button[data-item-id="address"] div.fontBodyMedium`
	PhoneSelector         = `button[data-item-id^="phone:tel:"] div.fontBodyMedium`
	HoursSelector         = `button[data-item-id*="oh"] div.fontBodyMedium`
	ReviewCountSelector   = `div.TIHn2 div.fontBodyMedium.dmRWX div span span span[aria-label]`
	ReviewAverageSelector = `div.TIHn2 div.fontBodyMedium.dmRWX div span[aria-hidden]`
	SocialLinkSelector    = `a[href*="facebook.com"], a[href*="twitter.com"], a[href*="instagram.com"]`
)

// consentScript clicks through the cookie wall shown to EU visitors.
const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="I agree"]',
    'button[aria-label="Alles akzeptieren"]',
    'button[aria-label="Tout accepter"]',
    'form[action*="consent"] button'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})();`
