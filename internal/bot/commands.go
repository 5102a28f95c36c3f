package bot

// CommandStart resets the dialog to the product menu.
const CommandStart = "/start"
