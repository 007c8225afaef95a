package rule

// Defaults returns the built-in field table covering payment data, credentials,
// network identifiers and personal data. A fresh map is returned on every call.
func Defaults() map[string]Rule {
	rules := make(map[string]Rule, 96)

	for _, key := range []string{
		"card_number", "pan", "acctNumber", "customeraccountnumber", "destination", "cardNum",
	} {
		rules[key] = StartEnd(6, 4)
	}

	for _, key := range []string{
		"security_code", "cvv", "securitycode", "card_cvv",
		"exp_month", "exp_year", "expiration_month", "expiration_year", "cardExpiryDate",
		"acquirerBIN", "ccExpMonth", "ccExpYear", "month", "year",
	} {
		rules[key] = FullMask()
	}

	rules["expirydate"] = FixedValue("**/****")

	for _, key := range []string{
		"cavv", "threeddirectorytransactionreference", "authenticationValue", "dsTransID",
		"sitereference", "address", "street", "zip", "ip", "browser_ip", "customerIp", "IP",
		"password", "Password", "Username", "auth", "accessor", "payload", "paymentHandleToken",
		"ciphertext", "threeDSSessionData", "creq", "form3d_html", "auth_code",
		"dsReferenceNumber", "signature", "Signature",
	} {
		rules[key] = FixedValue("*")
	}

	for _, key := range []string{
		"pay_form_3d", "PaRes", "pares", "MD", "md", "form3d", "payment_url", "SuccessURL", "FailURL",
	} {
		rules[key] = Null()
	}

	for _, key := range []string{
		"card_holder", "holder", "name", "customerfirstname", "customerlastname", "full_name",
		"wallet", "firstName", "lastName", "consumerId", "holderName", "Firstname", "Lastname",
	} {
		rules[key] = Name()
	}

	for _, key := range []string{"phone", "MobilePhone"} {
		rules[key] = Phone()
	}

	for _, key := range []string{
		"email", "Email", "client_email", "customeremail", "pay_from_email", "pay_to_email",
	} {
		rules[key] = Email()
	}

	return rules
}
