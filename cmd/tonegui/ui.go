package main

// splashHTML is shown while the server starts. The manager streams server
// output into it and then navigates to the control page.
const splashHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Tone Generator</title>
    <style>
        body { margin: 0; padding: 16px; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f0f0f; color: #eee; height: 100vh; box-sizing: border-box; display: flex; flex-direction: column; overflow: hidden; }
        h1 { font-size: 16px; font-weight: 500; margin: 0 0 12px 0; color: #aaa; }
        #log { flex: 1; overflow-y: auto; font-family: Consolas, Monaco, monospace; font-size: 11px; color: #9c9; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>Starting tone generator...</h1>
    <div id="log"></div>
    <script>
        const MAX_LINES = 200;
        window.addLogLine = function(line) {
            const log = document.getElementById('log');
            const div = document.createElement('div');
            div.textContent = line;
            log.appendChild(div);
            while (log.childNodes.length > MAX_LINES) {
                log.removeChild(log.firstChild);
            }
            log.scrollTop = log.scrollHeight;
        };
    </script>
</body>
</html>
`
